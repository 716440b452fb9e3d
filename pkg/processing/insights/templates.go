package insights

import (
	"fmt"
	"reflect"

	"github.com/dustin/go-humanize"
)

// ReadResourceTool is the tool suggested for fetching an offloaded resource.
const ReadResourceTool = "resources/read"

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() []Template {
	return []Template{CollectionSummary, TruncationNotice, OffloadNotice}
}

// CollectionSummary reports the size of collection-shaped results.
func CollectionSummary(in Input) ([]Insight, []Action) {
	if in.OriginalCount > 0 {
		return []Insight{{
			Text:       fmt.Sprintf("Result contains %s items", humanize.Comma(int64(in.OriginalCount))),
			Type:       TypeInformation,
			Importance: ImportanceMedium,
		}}, nil
	}

	if in.Result == nil {
		return nil, nil
	}
	v := reflect.ValueOf(in.Result)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		n := v.Len()
		if n == 0 {
			return []Insight{{
				Text:       "Result is empty",
				Type:       TypeInformation,
				Importance: ImportanceMedium,
			}}, nil
		}
		return []Insight{{
			Text:       fmt.Sprintf("Result contains %s items", humanize.Comma(int64(n))),
			Type:       TypeInformation,
			Importance: ImportanceLow,
		}}, nil
	}
	return nil, nil
}

// TruncationNotice warns that content was dropped to fit the budget.
func TruncationNotice(in Input) ([]Insight, []Action) {
	if !in.Truncated {
		return nil, nil
	}

	text := "Result was truncated to fit the token budget"
	if in.OriginalCount > 0 {
		text = fmt.Sprintf("Showing %s of %s items to fit the token budget",
			humanize.Comma(int64(in.RetainedCount)), humanize.Comma(int64(in.OriginalCount)))
	}

	var actions []Action
	if in.ResourceURI == "" {
		actions = append(actions, Action{
			Tool:        in.Tool,
			Description: "Re-run with narrower parameters or a larger budget to see more",
			Priority:    ImportanceMedium,
		})
	}

	return []Insight{{Text: text, Type: TypeWarning, Importance: ImportanceHigh}}, actions
}

// OffloadNotice points at the stored full result.
func OffloadNotice(in Input) ([]Insight, []Action) {
	if in.ResourceURI == "" {
		return nil, nil
	}

	text := "Full result stored as a resource"
	if in.ResourceSize > 0 {
		text = fmt.Sprintf("Full result (%s) stored as a resource", humanize.Bytes(uint64(in.ResourceSize)))
	}

	return []Insight{{
			Text:       text,
			Type:       TypeRecommendation,
			Importance: ImportanceCritical,
		}}, []Action{{
			Tool:        ReadResourceTool,
			Description: "Read the full result incrementally",
			Parameters:  map[string]any{"uri": in.ResourceURI},
			Priority:    ImportanceCritical,
		}}
}
