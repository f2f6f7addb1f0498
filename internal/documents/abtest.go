package documents

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// A/B test states. A test only moves to concluded through an explicit
// winner declaration, never automatically - no matter how high the
// confidence signal gets.
const (
	TestStateNotConfigured = "not_configured"
	TestStateRunning       = "running"
	TestStateConcluded     = "concluded"
)

var (
	// ErrTestNotConfigured is returned for operations on a document with
	// no variants yet.
	ErrTestNotConfigured = errors.New("ab test not configured")
	// ErrTestConcluded is returned when mutating a concluded test.
	ErrTestConcluded = errors.New("ab test already concluded")
	// ErrVariantNotFound is returned when a variant id does not belong to
	// the test.
	ErrVariantNotFound = errors.New("variant not found")
)

// ABTest is the A/B experiment attached to one document.
type ABTest struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	DocumentID      uint        `gorm:"uniqueIndex;not null" json:"document_id"`
	State           string      `gorm:"not null;default:'running'" json:"state"`
	WinnerVariantID *uint       `json:"winner_variant_id,omitempty"`
	Variants        []ABVariant `gorm:"foreignKey:TestID" json:"variants"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// ABVariant is one version of an A/B-tested document. ConversionRate is
// never stored; it is recomputed from the counters on every read so it
// cannot drift.
type ABVariant struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	TestID         uint   `gorm:"index;not null" json:"-"`
	Name           string `gorm:"not null" json:"name"`
	TrafficPercent int    `gorm:"not null" json:"trafficPercent"`
	Views          int    `gorm:"not null;default:0" json:"views"`
	Conversions    int    `gorm:"not null;default:0" json:"conversions"`
}

// ConversionRate returns conversions/views in percent.
func (v *ABVariant) ConversionRate() float64 {
	if v.Views == 0 {
		return 0
	}
	return float64(v.Conversions) / float64(v.Views) * 100
}

// GetTest loads the test and its variants for a document. A missing row
// means the state machine is still in not_configured.
func GetTest(db *gorm.DB, documentID uint) (*ABTest, error) {
	var test ABTest
	err := db.Preload("Variants").Where("document_id = ?", documentID).First(&test).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTestNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching ab test for document %d: %w", documentID, err)
	}
	return &test, nil
}

// ConfigureVariants creates or replaces the document's variant set and
// equal-splits traffic across it. Replacing the variants of a concluded
// test is rejected.
func ConfigureVariants(db *gorm.DB, documentID uint, names []string) (*ABTest, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("at least one variant is required")
	}

	var test *ABTest
	err := db.Transaction(func(tx *gorm.DB) error {
		existing, err := GetTest(tx, documentID)
		switch {
		case errors.Is(err, ErrTestNotConfigured):
			existing = &ABTest{DocumentID: documentID, State: TestStateRunning}
			if err := tx.Create(existing).Error; err != nil {
				return fmt.Errorf("error creating ab test: %w", err)
			}
		case err != nil:
			return err
		case existing.State == TestStateConcluded:
			return ErrTestConcluded
		default:
			if err := tx.Where("test_id = ?", existing.ID).Delete(&ABVariant{}).Error; err != nil {
				return fmt.Errorf("error clearing variants: %w", err)
			}
		}

		variants := make([]ABVariant, len(names))
		for i, name := range names {
			variants[i] = ABVariant{TestID: existing.ID, Name: name}
		}
		EqualSplit(variants)

		if err := tx.Create(&variants).Error; err != nil {
			return fmt.Errorf("error creating variants: %w", err)
		}

		existing.Variants = variants
		test = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// EqualSplit assigns floor(100/n) percent to every variant and the
// remainder to the first, so the total is always exactly 100.
func EqualSplit(variants []ABVariant) {
	n := len(variants)
	if n == 0 {
		return
	}
	share := 100 / n
	for i := range variants {
		variants[i].TrafficPercent = share
	}
	variants[0].TrafficPercent += 100 - share*n
}

// ApplyTrafficEdit sets one variant's traffic percentage, clamped to
// [0,100]. When the edit would push the total over 100, the other
// variants are scaled down proportionally with flooring; the total may
// land slightly under 100, which is accepted rather than corrected.
func ApplyTrafficEdit(variants []ABVariant, variantID uint, percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	edited := -1
	othersTotal := 0
	for i := range variants {
		if variants[i].ID == variantID {
			edited = i
		} else {
			othersTotal += variants[i].TrafficPercent
		}
	}
	if edited == -1 {
		return ErrVariantNotFound
	}

	variants[edited].TrafficPercent = percent

	if percent+othersTotal > 100 && othersTotal > 0 {
		scale := float64(100-percent) / float64(othersTotal)
		for i := range variants {
			if i == edited {
				continue
			}
			variants[i].TrafficPercent = int(float64(variants[i].TrafficPercent) * scale)
		}
	}

	return nil
}

// SaveTrafficEdit applies a manual traffic edit and persists the result.
func SaveTrafficEdit(db *gorm.DB, documentID, variantID uint, percent int) (*ABTest, error) {
	var test *ABTest
	err := db.Transaction(func(tx *gorm.DB) error {
		t, err := GetTest(tx, documentID)
		if err != nil {
			return err
		}
		if t.State == TestStateConcluded {
			return ErrTestConcluded
		}
		if err := ApplyTrafficEdit(t.Variants, variantID, percent); err != nil {
			return err
		}
		for i := range t.Variants {
			if err := tx.Model(&ABVariant{}).
				Where("id = ?", t.Variants[i].ID).
				Update("traffic_percent", t.Variants[i].TrafficPercent).Error; err != nil {
				return fmt.Errorf("error saving variant traffic: %w", err)
			}
		}
		test = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// DeclareWinner concludes the test with the given variant. This is the
// only transition into concluded.
func DeclareWinner(db *gorm.DB, documentID, variantID uint) (*ABTest, error) {
	var test *ABTest
	err := db.Transaction(func(tx *gorm.DB) error {
		t, err := GetTest(tx, documentID)
		if err != nil {
			return err
		}
		if t.State == TestStateConcluded {
			return ErrTestConcluded
		}

		found := false
		for i := range t.Variants {
			if t.Variants[i].ID == variantID {
				found = true
				break
			}
		}
		if !found {
			return ErrVariantNotFound
		}

		t.State = TestStateConcluded
		t.WinnerVariantID = &variantID
		if err := tx.Model(&ABTest{}).Where("id = ?", t.ID).
			Updates(map[string]interface{}{"state": TestStateConcluded, "winner_variant_id": variantID}).Error; err != nil {
			return fmt.Errorf("error concluding ab test: %w", err)
		}
		test = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return test, nil
}

// RecordView increments the view counter of a variant.
func RecordView(db *gorm.DB, variantID uint) error {
	return db.Model(&ABVariant{}).Where("id = ?", variantID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error
}

// RecordConversion increments the conversion counter of a variant.
func RecordConversion(db *gorm.DB, variantID uint) error {
	return db.Model(&ABVariant{}).Where("id = ?", variantID).
		UpdateColumn("conversions", gorm.Expr("conversions + 1")).Error
}
