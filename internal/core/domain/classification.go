package domain

// Classification taxonomy for ingested reports. The classifier adapter must
// return one of these labels; anything else is a classification failure.
const (
	LabelLabReport        = "lab_report"
	LabelImagingReport    = "imaging_report"
	LabelDischargeSummary = "discharge_summary"
	LabelOperativeNote    = "operative_note"
	LabelClinicNote       = "clinic_note"
	LabelPrescription     = "prescription"
	LabelOther            = "other"
)

// ClassificationLabels returns the fixed taxonomy in a stable order.
func ClassificationLabels() []string {
	return []string{
		LabelLabReport,
		LabelImagingReport,
		LabelDischargeSummary,
		LabelOperativeNote,
		LabelClinicNote,
		LabelPrescription,
		LabelOther,
	}
}

// ValidLabel reports whether label belongs to the taxonomy.
func ValidLabel(label string) bool {
	for _, l := range ClassificationLabels() {
		if l == label {
			return true
		}
	}
	return false
}
