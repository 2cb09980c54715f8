package forcestatus

import "forcestatus/internal/result"

// DisplayName is how the step is labelled in step pickers.
const DisplayName = "Force build result"

var comboItems = []result.Result{
	result.Success,
	result.Aborted,
	result.Failure,
	result.NotBuilt,
	result.Unstable,
}

// Descriptor carries the presentation data for the step's configuration form.
type Descriptor struct{}

func (Descriptor) DisplayName() string {
	return DisplayName
}

// FillResultItems returns the names offered in the result combo box.
func (Descriptor) FillResultItems() []string {
	items := make([]string, 0, len(comboItems))
	for _, r := range comboItems {
		items = append(items, r.String())
	}
	return items
}
