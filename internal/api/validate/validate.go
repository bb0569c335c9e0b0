package validate

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/mindmirror/mindmirror/internal/model"
)

// userIDRx matches the Weaviate tenant alphabet: user ids double as tenant names.
var userIDRx = regexp.MustCompile(`^[A-Za-z0-9_\-]{1,64}$`)

// MaxDays caps look-back windows to ten years.
const MaxDays = 3650

const (
	maxMoodLen  = 50
	maxFocusLen = 500
	maxQueryLen = 1000
)

func UserID(v string) error {
	if v == "" {
		return fmt.Errorf("user_id is required")
	}
	if !userIDRx.MatchString(v) {
		return fmt.Errorf("user_id must match %s", userIDRx.String())
	}
	return nil
}

// Days parses an optional window parameter; empty yields def.
func Days(raw string, def int) (int, error) {
	return boundedInt("days", raw, def, 0, MaxDays)
}

// Limit parses an optional result count; empty yields def.
func Limit(raw string, def, max int) (int, error) {
	return boundedInt("limit", raw, def, 1, max)
}

func boundedInt(field, raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", field, lo, hi)
	}
	return n, nil
}

func NonEmpty(field, v string) error {
	if v == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// SimilarQuery validates the free-text query of a similarity lookup.
func SimilarQuery(q string) error {
	if err := NonEmpty("q", q); err != nil {
		return err
	}
	return MaxLen("q", &q, maxQueryLen)
}

// -------- Request specific helpers ----------

func ReflectionRequest(req model.ReflectionRequest) error {
	if err := NonEmpty("current_mood", req.CurrentMood); err != nil {
		return err
	}
	if err := MaxLen("current_mood", &req.CurrentMood, maxMoodLen); err != nil {
		return err
	}
	return MaxLen("focus_area", req.FocusArea, maxFocusLen)
}
