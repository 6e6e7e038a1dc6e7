// Package storage keeps a history of served predictions in a BoltDB file.
// Records are keyed by subject (a country code, or ScenarioSubject for
// manual scenarios) and creation time, so a subject's history can be read
// back with a time-range scan.
package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"poverty-dashboard/internal/features"
	"poverty-dashboard/internal/ml"

	"go.etcd.io/bbolt"
)

const (
	dbFile            = "predictions.db"
	predictionsBucket = "predictions"

	// ScenarioSubject is the subject of predictions made from manual scenarios.
	ScenarioSubject = "SCENARIO"
)

// PredictionRecord is one served prediction.
type PredictionRecord struct {
	ID          string          `json:"id"`
	Mode        string          `json:"mode"`
	Subject     string          `json:"subject"`
	Year        int             `json:"year,omitempty"`
	Inputs      features.Values `json:"inputs"`
	Predictions []ml.Prediction `json:"predictions"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// Store persists prediction records using BoltDB.
type Store struct {
	db *bbolt.DB
}

// New opens (or creates) the history database under dataPath.
func New(dataPath string) (*Store, error) {
	dbPath := filepath.Join(dataPath, dbFile)

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(predictionsBucket)); err != nil {
			return fmt.Errorf("create predictions bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database. Closing twice is not an error.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func recordKey(subject string, t time.Time) []byte {
	// Zero-padded so lexical order matches time order.
	return []byte(fmt.Sprintf("%s_%020d", subject, t.UnixNano()))
}

// StorePrediction writes a record under its subject and creation time.
func (s *Store) StorePrediction(rec PredictionRecord) error {
	if rec.Subject == "" {
		return fmt.Errorf("record has no subject")
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(predictionsBucket))

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal prediction: %w", err)
		}

		return b.Put(recordKey(rec.Subject, rec.CreatedAt), data)
	})
}

// GetPredictions returns the subject's records created within [start, end],
// oldest first.
func (s *Store) GetPredictions(subject string, start, end time.Time) ([]PredictionRecord, error) {
	var records []PredictionRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(predictionsBucket)).Cursor()

		prefix := []byte(subject + "_")
		endKey := recordKey(subject, end)

		for k, v := c.Seek(recordKey(subject, start)); k != nil && bytes.Compare(k, endKey) <= 0; k, v = c.Next() {
			if !bytes.HasPrefix(k, prefix) {
				continue
			}

			var rec PredictionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				continue // skip malformed records
			}
			records = append(records, rec)
		}
		return nil
	})

	return records, err
}
