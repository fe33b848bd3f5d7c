package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/hybsim/internal/dynamo"
)

var constructors = map[string]func() dynamo.Stepper{
	"rk4":   func() dynamo.Stepper { return NewRK4() },
	"euler": func() dynamo.Stepper { return NewEuler() },
}

// ByName returns a fresh stepper for name.
func ByName(name string) (dynamo.Stepper, error) {
	fn, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
