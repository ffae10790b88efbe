package policies

import (
	"fmt"
	"sort"

	"github.com/policyscale/rspmap/pkg/errors"
)

// Snapshot is a validated, immutable view over a set of policy records.
// It is the only input downstream analysis components accept: a Snapshot
// can only be produced by Validate, so holding one proves the records
// passed schema validation.
type Snapshot struct {
	records   []PolicyRecord
	labOrder  []string
	byLab     map[string]PolicyRecord
	registry  *Registry
	validated bool
}

// Validate checks a record set against the shared domain registry and
// returns an immutable Snapshot on success. It fails with a
// *errors.SchemaError identifying the offending lab and field when any
// record has an empty level sequence, non-strictly-increasing ordinals,
// a duplicate lab ID, or a domain tag outside the registry.
func Validate(records []PolicyRecord, registry *Registry) (*Snapshot, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if len(records) == 0 {
		return nil, errors.NewSchemaError("", "records", "no policy records supplied")
	}

	snap := &Snapshot{
		records:  make([]PolicyRecord, len(records)),
		labOrder: make([]string, 0, len(records)),
		byLab:    make(map[string]PolicyRecord, len(records)),
		registry: registry,
	}

	for _, record := range records {
		if record.LabID == "" {
			return nil, errors.NewSchemaError("", "lab_id", "record is missing a lab identifier")
		}
		if _, exists := snap.byLab[record.LabID]; exists {
			return nil, errors.NewSchemaError(record.LabID, "lab_id", "duplicate lab identifier")
		}
		if err := validateRecord(record, registry); err != nil {
			return nil, err
		}
		snap.byLab[record.LabID] = record
		snap.labOrder = append(snap.labOrder, record.LabID)
	}
	copy(snap.records, records)
	snap.validated = true

	return snap, nil
}

// validateRecord checks a single record's levels and coverage map.
func validateRecord(record PolicyRecord, registry *Registry) error {
	if len(record.Levels) == 0 {
		return errors.NewSchemaError(record.LabID, "levels", "level sequence is empty")
	}

	prev := 0
	for i, level := range record.Levels {
		if level.NativeLevelName == "" {
			return errors.NewSchemaError(record.LabID, "levels",
				fmt.Sprintf("level %d is missing a native level name", i+1))
		}
		if i > 0 && level.OrdinalPosition <= prev {
			return errors.NewSchemaError(record.LabID, "ordinal_position",
				fmt.Sprintf("ordinal %d at level %q does not strictly increase (previous %d)",
					level.OrdinalPosition, level.NativeLevelName, prev))
		}
		prev = level.OrdinalPosition

		for _, tag := range level.TriggeringCapabilities {
			if !registry.Contains(tag) {
				return errors.NewSchemaError(record.LabID, "triggering_capabilities",
					fmt.Sprintf("domain tag %q at level %q is not in the shared registry",
						tag, level.NativeLevelName))
			}
		}
	}

	for tag, coverage := range record.Coverage {
		if !registry.Contains(tag) {
			return errors.NewSchemaError(record.LabID, "coverage",
				fmt.Sprintf("domain tag %q is not in the shared registry", tag))
		}
		if !coverage.Valid() {
			return errors.NewSchemaError(record.LabID, "coverage",
				fmt.Sprintf("coverage %q for domain %q is not one of Full, Partial, None",
					coverage, tag))
		}
	}

	return nil
}

// Validated reports whether the snapshot was produced by Validate.
func (s *Snapshot) Validated() bool {
	return s != nil && s.validated
}

// Records returns the validated records in their original order.
// Callers must treat the returned slice as read-only.
func (s *Snapshot) Records() []PolicyRecord {
	return s.records
}

// LabIDs returns lab identifiers in record order. This order is the
// stable lab ordering used throughout an analysis run.
func (s *Snapshot) LabIDs() []string {
	return s.labOrder
}

// Record returns the record for a lab ID.
func (s *Snapshot) Record(labID string) (PolicyRecord, bool) {
	record, ok := s.byLab[labID]
	return record, ok
}

// Registry returns the domain registry the snapshot was validated against.
func (s *Snapshot) Registry() *Registry {
	return s.registry
}

// Domains returns the sorted union of domains mentioned by any record.
func (s *Snapshot) Domains() []DomainTag {
	set := make(map[DomainTag]struct{})
	for _, record := range s.records {
		for _, tag := range record.Domains() {
			set[tag] = struct{}{}
		}
	}
	tags := make([]DomainTag, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
