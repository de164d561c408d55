package registry

import (
	"bankrot-check/internal/components/telemetry"
)

const (
	report_session_check          = "session.check"
	report_session_refresh_cookie = "session.refresh-cookie"
	report_session_extract        = "session.extract"
)

var tracer = telemetry.Tracer("bankrot.registry")
var meter = telemetry.Meter("bankrot.registry")

var cookieRefreshCounter, _ = meter.Int64Counter("cookie_refreshes")
var attemptCounter, _ = meter.Int64Counter("search_attempts")
