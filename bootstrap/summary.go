package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/voicegate/component"
)

// Summary prints what an application started with: components, routes
// and live health.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a summary writing to stderr; stdout is reserved for
// command results and the port announcement.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version, out: os.Stderr}
}

// SetWriter redirects the summary output.
func (s *Summary) SetWriter(w io.Writer) { s.out = w }

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Display prints the summary, collecting descriptions, routes and health
// from the registry.
func (s *Summary) Display(ctx context.Context, registry *component.Registry) {
	w := s.out
	fmt.Fprintf(w, "\n%s %s started in %.2fs\n", s.serviceName, s.version, s.startupDuration.Seconds())

	if registry == nil {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}
	all := registry.All()
	if len(all) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	fmt.Fprintf(w, "\nComponents\n")
	var routes []component.Route
	for i, c := range all {
		name, details := c.Name(), ""
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name != "" {
				name = desc.Name
			}
			details = desc.Details
			if desc.Port > 0 && !strings.HasSuffix(details, fmt.Sprintf(":%d", desc.Port)) {
				details = fmt.Sprintf("%s (:%d)", details, desc.Port)
			}
		}
		if details != "" {
			details = ": " + details
		}
		fmt.Fprintf(w, "   %s %s%s\n", treePrefix(i, len(all)), name, details)
		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "\nRoutes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s -> %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}

	health := registry.HealthAll(ctx)
	fmt.Fprintf(w, "\nHealth\n")
	healthy := 0
	for i, h := range health {
		msg := ""
		if h.Message != "" {
			msg = " (" + h.Message + ")"
		}
		fmt.Fprintf(w, "   %s [%s] %s%s\n", treePrefix(i, len(health)), healthLabel(h.Status), h.Name, msg)
		if h.Status == component.StatusHealthy {
			healthy++
		}
	}
	fmt.Fprintf(w, "\n%d/%d components healthy\n\n", healthy, len(health))
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthLabel(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "ok"
	case component.StatusDegraded:
		return "degraded"
	case component.StatusUnhealthy:
		return "down"
	default:
		return "?"
	}
}
