package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Public pages
	RouteLogin          = "/login"
	RouteRegister       = "/register"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteLogout         = "/logout"

	// Protected pages
	RouteDashboard      = "/dashboard"
	RouteChangePassword = "/change-password"

	// API Routes
	RouteAPIValidatePassword = "/api/validate-password"
	RouteHealthz             = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"
)
