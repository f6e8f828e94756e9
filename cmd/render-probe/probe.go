package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/gstreamer"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report available sink elements and the bridge that would be used",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		report := probe(gstreamer.NewFramework(), cfg.SinkElements())
		printReport(report)
		return nil
	},
}

type factoryStatus struct {
	Role      string
	Factory   string
	Available bool
}

type probeReport struct {
	Factories []factoryStatus
	GLReady   bool
	CPUReady  bool
}

func probe(fw media.Framework, el sink.Elements) probeReport {
	roles := []struct{ role, factory string }{
		{"download", el.Download},
		{"convert", el.Convert},
		{"glsinkbin", el.GLSinkBin},
		{"upload", el.Upload},
		{"appsink", el.AppSink},
	}

	var r probeReport
	have := map[string]bool{}
	for _, x := range roles {
		ok := fw.HasElementFactory(x.factory)
		have[x.role] = ok
		r.Factories = append(r.Factories, factoryStatus{Role: x.role, Factory: x.factory, Available: ok})
	}
	r.GLReady = have["download"] && have["glsinkbin"] && have["upload"] && have["appsink"]
	r.CPUReady = have["download"] && have["convert"] && have["appsink"]
	return r
}

// selection names what New would pick for a host with an EGL context.
func (r probeReport) selection() string {
	switch {
	case r.GLReady:
		return "gl (needs an application EGL context)"
	case r.CPUReady:
		return "dummy (cpu copy)"
	default:
		return "none (sink cannot be built)"
	}
}

func printReport(r probeReport) {
	fmt.Printf("\nSink elements:\n")
	for _, f := range r.Factories {
		mark := "missing"
		if f.Available {
			mark = "ok"
		}
		fmt.Printf("  %-10s %-16s %s\n", f.Role, f.Factory, mark)
	}
	fmt.Printf("\nGL path:   %v\n", r.GLReady)
	fmt.Printf("CPU path:  %v\n", r.CPUReady)
	fmt.Printf("Bridge:    %s\n\n", r.selection())
}
