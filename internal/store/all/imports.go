// Package all wires every built-in store backend into the factory.
//
// It exists purely for side effects: a blank import runs the init
// functions of each backend package, which register their drivers with
// the store package. Binaries that want only one backend can import that
// backend package directly instead.
package all

import (
	_ "chartfold/internal/store/postgres"
	_ "chartfold/internal/store/sqlite"
)
