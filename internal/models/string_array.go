package models

import (
	"encoding/json"
	"fmt"

	"github.com/myad-dev/site/internal/pkg/textutil"
)

// StringList is a tag/keyword list. It always encodes as a JSON array and
// tolerates the legacy shapes found in older data files and admin forms:
// null, a single comma/newline separated string, or an array with non-string junk.
type StringList []string

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	if l == nil {
		return fmt.Errorf("models.StringList: UnmarshalJSON on nil pointer")
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*l = StringList(textutil.ToList(raw))
	return nil
}
