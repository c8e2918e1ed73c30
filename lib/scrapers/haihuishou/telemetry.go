package haihuishou

import (
	"haigrab/lib/restyutil"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/haihuishou")

var restyInstrumentOutput restyutil.InstrumentOutput

// SetRestyInstrumentOutput must be called before any client is
// constructed for the output to take effect.
func SetRestyInstrumentOutput(out restyutil.InstrumentOutput) {
	restyInstrumentOutput = out
}
