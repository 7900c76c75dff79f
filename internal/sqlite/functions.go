package sqlite

import (
	"database/sql/driver"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	msqlite "modernc.org/sqlite"
)

// SQL helpers registered with the driver so that server-side filtering and
// sorting agree with the client-side engines: search folds case with
// strings.ToLower and strings order by the English collator.
const (
	foldFunc      = "tc_fold"
	textCollation = "tc_text"
)

func init() {
	if err := msqlite.RegisterDeterministicScalarFunction(foldFunc, 1, fold); err != nil {
		panic(err)
	}
	var mu sync.Mutex
	collator := collate.New(language.English)
	if err := msqlite.RegisterCollationUtf8(textCollation, func(left, right string) int {
		mu.Lock()
		defer mu.Unlock()
		return collator.CompareString(left, right)
	}); err != nil {
		panic(err)
	}
}

// fold lower-cases text values. Other values pass through.
func fold(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
