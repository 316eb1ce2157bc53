package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ResultRecord is one athlete's best result as returned by the
// historical-leaderboard query. Score (GL points) is the ranking key.
type ResultRecord struct {
	ID              ID        `json:"_id"`
	Name            string    `json:"athlete_name"`
	Federation      string    `json:"federation,omitempty"`
	CompetitionName string    `json:"competition_name,omitempty"`
	WeightClass     string    `json:"real_weight_class"`
	Sex             Dimension `json:"sex"`
	Squat           float64   `json:"best_squat"`
	Bench           float64   `json:"best_bench"`
	Deadlift        float64   `json:"best_deadlift"`
	Total           float64   `json:"best_total"`
	Score           float64   `json:"best_value"`
	ImageURL        string    `json:"image_url,omitempty"`
	Date            string    `json:"date,omitempty"`
}

// Club returns the group label: federation, falling back to competition name.
func (r ResultRecord) Club() string {
	if r.Federation != "" {
		return r.Federation
	}
	return r.CompetitionName
}

// ID is an upstream identifier that may be encoded as a JSON string or number.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// FillMissing completes records fetched for dimension d: records without an
// identifier get "<d>-<position>", records without a sex get d.
func FillMissing(d Dimension, records []ResultRecord) {
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = ID(string(d) + "-" + strconv.Itoa(i))
		}
		if records[i].Sex == "" {
			records[i].Sex = d
		}
	}
}

// Standing is a record with its 1-based position in a ranked view.
type Standing struct {
	Rank int `json:"rank"`
	ResultRecord
}
