package opds2

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/KonishchevDmitry/opds/pkg/parse"
)

// Either a plain string or a map of translations keyed by BCP 47 language tag.
type localizedString string

func (s *localizedString) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err == nil {
		*s = localizedString(value)
		return nil
	}

	var translations map[string]string
	if err := json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("invalid localized string: %s", data)
	}

	for _, language := range []string{"en", "und"} {
		if value, ok := translations[language]; ok {
			*s = localizedString(value)
			return nil
		}
	}

	languages := make([]string, 0, len(translations))
	for language := range translations {
		languages = append(languages, language)
	}
	slices.Sort(languages)

	if len(languages) != 0 {
		*s = localizedString(translations[languages[0]])
	}

	return nil
}

// A string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var value string
	if err := json.Unmarshal(data, &value); err == nil {
		*l = stringList{value}
		return nil
	}

	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("expected a string or an array of strings: %s", data)
	}

	*l = values
	return nil
}

// Contributors and subjects: a string, an object with a name or an array of them.
type names []string

func (n *names) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}

	var items []json.RawMessage
	if bytes.HasPrefix(data, []byte("[")) {
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
	} else {
		items = []json.RawMessage{data}
	}

	var result names
	for _, item := range items {
		var name localizedString

		if bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			var object struct {
				Name localizedString `json:"name"`
			}
			if err := json.Unmarshal(item, &object); err != nil {
				return fmt.Errorf("invalid contributor: %s", item)
			}
			name = object.Name
		} else if err := json.Unmarshal(item, &name); err != nil {
			return err
		}

		if value := parse.TrimText(string(name)); value != "" {
			result = append(result, value)
		}
	}

	*n = result
	return nil
}
