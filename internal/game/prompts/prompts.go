// Package prompts holds the built-in questions and scenarios of the games.
package prompts

type Kind string

const (
	KindTruth Kind = "truth"
	KindDare  Kind = "dare"
)

type Category string

const (
	CategoryRomantic Category = "romantic"
	CategoryFun      Category = "fun"
	CategoryDeep     Category = "deep"
	CategorySilly    Category = "silly"
)

type Prompt struct {
	Kind     Kind     `json:"type"`
	Text     string   `json:"text"`
	Category Category `json:"category,omitempty"`
}

type Scenario struct {
	OptionA string `json:"optionA"`
	OptionB string `json:"optionB"`
}

// Filter returns the prompts of kind, limited to category unless it is empty.
func Filter(kind Kind, category Category) []Prompt {
	var out []Prompt
	for _, p := range truthOrDare {
		if p.Kind == kind && (category == "" || p.Category == category) {
			out = append(out, p)
		}
	}

	return out
}

func Scenarios() []Scenario {
	return append([]Scenario(nil), wouldRather...)
}

func Questions() []string {
	return append([]string(nil), moreLikely...)
}

// Random picks one item with pick, which returns an index in [0, n).
// ok is false for an empty list.
func Random[T any](items []T, pick func(n int) int) (item T, ok bool) {
	if len(items) == 0 {
		return item, false
	}

	return items[pick(len(items))], true
}
