package store

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/miradorstack/mirador-clusterview/internal/models"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func snapshotValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterStructValidation(podCountsValidation, models.ClusterMetrics{})
		validate = v
	})
	return validate
}

func podCountsValidation(sl validator.StructLevel) {
	m := sl.Current().Interface().(models.ClusterMetrics)
	if m.HealthyPods+m.UnhealthyPods > m.PodCount {
		sl.ReportError(m.HealthyPods, "healthyPods", "HealthyPods", "podtotal", "")
	}
}

// Bounds are the operating ranges ingested cpu and memory values must fall in.
type Bounds struct {
	CPU    models.Range
	Memory models.Range
}

// DefaultBounds returns the default operating ranges.
func DefaultBounds() Bounds {
	return Bounds{CPU: models.DefaultCPURange, Memory: models.DefaultMemoryRange}
}

// Validate checks a snapshot against the data-model invariants and the default
// operating ranges. The returned error wraps ErrMalformedSnapshot.
func Validate(snap models.Snapshot) error {
	return DefaultBounds().Validate(snap)
}

// Validate checks a snapshot against the data-model invariants and b. The returned
// error wraps ErrMalformedSnapshot.
func (b Bounds) Validate(snap models.Snapshot) error {
	var msgs []string

	err := snapshotValidator().Struct(snap)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return malformed(err)
		}
		for _, fe := range verrs {
			msgs = append(msgs, describe(fe))
		}
	}
	if !b.CPU.Contains(snap.Metrics.CPUUsage) {
		msgs = append(msgs, outOfRange("metrics.cpuUsage", snap.Metrics.CPUUsage, b.CPU))
	}
	if !b.Memory.Contains(snap.Metrics.MemoryUsage) {
		msgs = append(msgs, outOfRange("metrics.memoryUsage", snap.Metrics.MemoryUsage, b.Memory))
	}

	if len(msgs) == 0 {
		return nil
	}
	return malformed(errors.New(strings.Join(msgs, "; ")))
}

func outOfRange(field string, v float64, r models.Range) string {
	return fmt.Sprintf("%s: %v outside [%v, %v]", field, v, r.Min, r.Max)
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Snapshot.")
	switch fe.Tag() {
	case "podtotal":
		return fmt.Sprintf("%s: healthyPods + unhealthyPods exceeds podCount", strings.TrimSuffix(field, ".healthyPods"))
	case "required":
		return fmt.Sprintf("%s: required", field)
	case "unique":
		return fmt.Sprintf("%s: duplicate %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: %v not one of [%s]", field, fe.Value(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s: %v below %s", field, fe.Value(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s: %v above %s", field, fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("%s: failed %s", field, fe.Tag())
	}
}
