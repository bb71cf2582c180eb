// Package loadgen drives a running stockroom service over HTTP with random
// items and checks the orderings it reports against a local model.
package loadgen

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL    string        // Base URL of the service
	NumItems   int           // Number of distinct items to create
	Updates    int           // Quantity updates per item after creation
	Categories int           // Number of categories items are spread over
	TopK       int           // k used when reading /top
	Workers    int           // Number of concurrent clients
	Timeout    time.Duration // HTTP request timeout
	Seed       uint64        // Seed for quantities; 0 picks one from the clock
	Verbose    bool          // Log every failed request
}

// Validate reports settings that cannot produce a run.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url must not be empty")
	case c.NumItems < 1:
		return fmt.Errorf("items must be at least 1, got %d", c.NumItems)
	case c.Updates < 0:
		return fmt.Errorf("updates must not be negative, got %d", c.Updates)
	case c.Categories < 1:
		return fmt.Errorf("categories must be at least 1, got %d", c.Categories)
	case c.TopK < 1:
		return fmt.Errorf("top must be at least 1, got %d", c.TopK)
	case c.Workers < 1:
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	ItemsGenerated int
	Created        int
	Merged         int
	Updated        int
	Failed         int
	TopChecked     int
	ListsChecked   int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
