package triage

// View identifies which screen is active.
type View int

const (
	ViewLogin View = iota
	ViewDashboard
	ViewCategoryDetail
	ViewEmailDetail
)

// String returns a human-readable name for the view.
func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewDashboard:
		return "dashboard"
	case ViewCategoryDetail:
		return "category"
	case ViewEmailDetail:
		return "email"
	default:
		return "unknown"
	}
}

// ActiveView maps application state to the screen that should be shown.
func ActiveView(s State) View {
	switch {
	case s.User == nil:
		return ViewLogin
	case s.SelectedCategoryID == "":
		return ViewDashboard
	case s.OpenEmailID != "":
		return ViewEmailDetail
	default:
		return ViewCategoryDetail
	}
}
