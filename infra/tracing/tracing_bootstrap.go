package tracing

import (
	"io"

	"appbase/common"

	"github.com/sirupsen/logrus"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerlog "github.com/uber/jaeger-client-go/log"
	"github.com/uber/jaeger-lib/metrics"
)

// Bootstrap installs a jaeger tracer as the opentracing global tracer.
// Sampling and reporting are taken from the JAEGER_* environment, a NoopTracer
// stays in place when the environment carries no configuration.
func Bootstrap() io.Closer {
	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		logrus.Warnf("tracing disabled, jaeger config: %v", err)
		return nil
	}
	cfg.ServiceName = common.GetServiceName()

	closer, err := cfg.InitGlobalTracer(cfg.ServiceName,
		jaegercfg.Logger(jaegerlog.StdLogger),
		jaegercfg.Metrics(metrics.NullFactory))
	if err != nil {
		logrus.Warnf("tracing disabled, jaeger tracer: %v", err)
		return nil
	}

	return closer
}
