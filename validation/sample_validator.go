// Package validation provides input and snapshot validation for the dataset
// sampler.
package validation

import (
	"fmt"
	"strings"

	"github.com/evdata/evdata-api/datafetcher/entities"
	"github.com/evdata/evdata-api/interfaces"
)

// Substring matching is faster than regex for these patterns and the format
// parameter is the only user-controlled input.
var dangerousPatterns = []string{
	"<script", "javascript:", "eval(", "expression(",
	"' or ", "\" or ", "union select", "--", "/*",
	"../", "..\\", "%2e%2e", "file://",
	";", "|", "&", "`", "$(", "${",
}

// Compile-time check to ensure SampleValidatorImpl implements SampleValidator
var _ interfaces.SampleValidator = (*SampleValidatorImpl)(nil)

// SampleValidatorImpl implements the interfaces.SampleValidator interface
type SampleValidatorImpl struct{}

// NewSampleValidator creates a new sample validator
func NewSampleValidator() interfaces.SampleValidator {
	return &SampleValidatorImpl{}
}

// ValidateFormat validates a user-supplied format name against the known
// formats after rejecting injection attempts.
func (v *SampleValidatorImpl) ValidateFormat(input string) (entities.Format, error) {
	if input == "" {
		return "", fmt.Errorf("format cannot be empty")
	}
	if len(input) > 16 {
		return "", fmt.Errorf("format name too long")
	}

	lowered := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowered, pattern) {
			return "", fmt.Errorf("format contains invalid characters")
		}
	}

	format, err := entities.ParseFormat(lowered)
	if err != nil {
		return "", err
	}
	return format, nil
}

// ValidateSnapshot checks the structural invariants of a snapshot: sampling
// caps respected, counts non-negative, reported names consistent with the
// underlying frame.
func (v *SampleValidatorImpl) ValidateSnapshot(snapshot *entities.DatasetSnapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot is nil")
	}

	if s := snapshot.JSON; s != nil {
		if s.TotalRecords < 0 {
			return fmt.Errorf("json: negative record count: %d", s.TotalRecords)
		}
		if len(s.Records) > 3 {
			return fmt.Errorf("json: sample exceeds record cap: %d", len(s.Records))
		}
		if err := validateFieldCaps("json", s.Records); err != nil {
			return err
		}
	}

	if s := snapshot.XML; s != nil {
		if s.TotalRows < 0 {
			return fmt.Errorf("xml: negative row count: %d", s.TotalRows)
		}
		if len(s.Records) > 3 {
			return fmt.Errorf("xml: sample exceeds record cap: %d", len(s.Records))
		}
		if len(s.Records) > s.TotalRows {
			return fmt.Errorf("xml: sample larger than document: %d > %d", len(s.Records), s.TotalRows)
		}
		if err := validateFieldCaps("xml", s.Records); err != nil {
			return err
		}
		for _, rec := range s.Records {
			for _, field := range rec.Fields {
				if strings.ContainsAny(field.Name, "{}:") {
					return fmt.Errorf("xml: namespace not stripped from tag %q", field.Name)
				}
			}
		}
	}

	if s := snapshot.CSV; s != nil {
		if s.Rows < 0 || s.Columns < 0 {
			return fmt.Errorf("csv: negative dimensions: (%d, %d)", s.Rows, s.Columns)
		}
		if len(s.ColumnNames) > 5 {
			return fmt.Errorf("csv: column preview exceeds cap: %d", len(s.ColumnNames))
		}
		if len(s.Head) > 3 {
			return fmt.Errorf("csv: head exceeds record cap: %d", len(s.Head))
		}
		if names := s.Frame.Names(); len(names) > 0 && len(s.ColumnNames) > 0 {
			if s.ColumnNames[0] != names[0] {
				return fmt.Errorf("csv: first reported column %q differs from frame column %q",
					s.ColumnNames[0], names[0])
			}
		}
	}

	return nil
}

func validateFieldCaps(format string, records []entities.SampleRecord) error {
	for i, rec := range records {
		if len(rec.Fields) > 5 {
			return fmt.Errorf("%s: record %d exceeds field cap: %d", format, i, len(rec.Fields))
		}
	}
	return nil
}

// ReportSampleQuality generates a quality report for a snapshot.
func (v *SampleValidatorImpl) ReportSampleQuality(snapshot *entities.DatasetSnapshot) *interfaces.SampleQualityReport {
	report := &interfaces.SampleQualityReport{}
	if snapshot == nil {
		report.MissingFormats = append([]entities.Format(nil), entities.Formats...)
		return report
	}

	if snapshot.JSON == nil {
		report.MissingFormats = append(report.MissingFormats, entities.FormatJSON)
	} else {
		report.UnexpectedJSONShape = snapshot.JSON.Preview != ""
		report.EmptyJSONSample = len(snapshot.JSON.Records) == 0 && snapshot.JSON.Preview == ""
	}

	if snapshot.XML == nil {
		report.MissingFormats = append(report.MissingFormats, entities.FormatXML)
	} else {
		report.EmptyXMLSample = len(snapshot.XML.Records) == 0
	}

	if snapshot.CSV == nil {
		report.MissingFormats = append(report.MissingFormats, entities.FormatCSV)
	} else {
		report.EmptyCSVHead = len(snapshot.CSV.Head) == 0
		report.MissingNumericStats = snapshot.CSV.Stats == nil
	}

	return report
}
