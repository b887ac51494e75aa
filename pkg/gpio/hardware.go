// This file may be distributed under the terms of the GNU GPLv3 license.

package gpio

// Hardware bundles the three physical pins the stage uses.
type Hardware struct {
	Enable    Output
	Switch    Input
	Indicator Output
}
