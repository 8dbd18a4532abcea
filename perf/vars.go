package perf

import (
	"expvar"
	"net/http"

	"github.com/encodeous/metric"
)

var (
	DispatchLatency        = metric.NewHistogram("1m1s")
	DispatchQueueLatency   = metric.NewHistogram("1m1s")
	EmbedLatency           = metric.NewHistogram("1m1s")
	OracleBuildLatency     = metric.NewHistogram("1m1s")
	RouteDecisionLatency   = metric.NewHistogram("10s1s")
	RebuildLatency         = metric.NewHistogram("1m1s")

	RoutesPerSecond     = metric.NewCounter("10s1s")
	DeliveredPerSecond  = metric.NewCounter("10s1s")
	FailedPerSecond     = metric.NewCounter("10s1s")
	RebuildsPerSecond   = metric.NewCounter("10s1s")
	HeartbeatsPerSecond = metric.NewCounter("10s1s")

	GravityHops  = metric.NewCounter("10s1s")
	PressureHops = metric.NewCounter("10s1s")
	TZHops       = metric.NewCounter("10s1s")
	TreeHops     = metric.NewCounter("10s1s")
)

func init() {
	http.Handle("/debug/metrics", metric.Handler(metric.Exposed))

	expvar.Publish("hxroute:DispatchLatency (µs)", DispatchLatency)
	expvar.Publish("hxroute:DispatchQueueLatency (µs)", DispatchQueueLatency)
	expvar.Publish("hxroute:EmbedLatency (µs)", EmbedLatency)
	expvar.Publish("hxroute:OracleBuildLatency (µs)", OracleBuildLatency)
	expvar.Publish("hxroute:RouteDecisionLatency (µs)", RouteDecisionLatency)
	expvar.Publish("hxroute:RebuildLatency (µs)", RebuildLatency)

	expvar.Publish("hxroute:Routes/s", RoutesPerSecond)
	expvar.Publish("hxroute:Delivered/s", DeliveredPerSecond)
	expvar.Publish("hxroute:Failed/s", FailedPerSecond)
	expvar.Publish("hxroute:Rebuilds/s", RebuildsPerSecond)
	expvar.Publish("hxroute:Heartbeats/s", HeartbeatsPerSecond)

	expvar.Publish("hxroute:GravityHops/s", GravityHops)
	expvar.Publish("hxroute:PressureHops/s", PressureHops)
	expvar.Publish("hxroute:TZHops/s", TZHops)
	expvar.Publish("hxroute:TreeHops/s", TreeHops)
}
