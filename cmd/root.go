// cmd/root.go
package cmd

import (
	"encoding/json"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	lantern "github.com/lantern-sim/lantern/lantern"
	"github.com/lantern-sim/lantern/lantern/metrics"
	"github.com/lantern-sim/lantern/lantern/recorder"
)

var (
	devtoolsLogPath string
	tracePath       string
	settingsPath    string
	speedIndexMs    float64
	logLevel        string
)

var rootCmd = &cobra.Command{
	Use:   "lantern",
	Short: "Page-load performance simulator and metrics engine",
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Derive page-load metrics from a devtools log and a main-thread trace",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		settings := lantern.DefaultSettings()
		if settingsPath != "" {
			loaded, err := lantern.LoadSettings(settingsPath)
			if err != nil {
				logrus.Fatalf("loading settings: %v", err)
			}
			settings = *loaded
		}

		messages, err := loadDevtoolsLog(devtoolsLogPath)
		if err != nil {
			logrus.Fatalf("loading devtools log: %v", err)
		}
		records, err := recorder.BuildNetworkRequests(messages)
		if err != nil {
			logrus.Fatalf("recording network requests: %v", err)
		}
		logrus.Infof("recorded %d network requests from %s", len(records), devtoolsLogPath)

		events, err := loadTrace(tracePath)
		if err != nil {
			logrus.Fatalf("loading trace: %v", err)
		}
		logrus.Infof("loaded %d main-thread trace events from %s", len(events), tracePath)

		graph, err := lantern.BuildGraph(records, events)
		if err != nil {
			logrus.Fatalf("building graph: %v", err)
		}

		analysis, err := lantern.AnalyzeNetwork(records)
		if err != nil {
			logrus.Fatalf("analyzing network: %v", err)
		}

		results, err := metrics.Compute(metrics.Input{
			Graph:                graph,
			Events:               events,
			Records:              records,
			Settings:             settings,
			Analysis:             analysis,
			ObservedSpeedIndexMs: speedIndexMs,
		})
		if err != nil {
			logrus.Fatalf("computing metrics: %v", err)
		}

		printResults(results)
	},
}

func printResults(r *metrics.Results) {
	print := func(name string, e *metrics.Estimate) {
		if e == nil {
			logrus.Warnf("%s: unavailable (%v)", name, r.Errors[name])
			return
		}
		logrus.Infof("%s: %.1f ms", name, e.TimingMs)
	}
	print("first-contentful-paint", r.FirstContentfulPaint)
	print("first-meaningful-paint", r.FirstMeaningfulPaint)
	print("interactive", r.Interactive)
	print("first-cpu-idle", r.FirstCPUIdle)
	print("speed-index", r.SpeedIndex)
	print("estimated-input-latency", r.EstimatedInputLatency)
}

func loadDevtoolsLog(path string) ([]recorder.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var messages []recorder.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// traceFile mirrors Chrome's {"traceEvents": [...]} wrapper; a bare
// array is also accepted for simpler fixtures.
type traceFile struct {
	TraceEvents []rawTraceEvent `json:"traceEvents"`
}

type rawTraceEvent struct {
	Name string                 `json:"name"`
	Ph   string                 `json:"ph"`
	TS   int64                  `json:"ts"`
	Dur  int64                  `json:"dur"`
	PID  int64                  `json:"pid"`
	TID  int64                  `json:"tid"`
	Args map[string]interface{} `json:"args"`
}

func loadTrace(path string) ([]*lantern.TraceEvent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []rawTraceEvent
	var wrapped traceFile
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.TraceEvents != nil {
		raw = wrapped.TraceEvents
	} else if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	events := make([]*lantern.TraceEvent, 0, len(raw))
	for _, r := range raw {
		e := &lantern.TraceEvent{
			Name:  r.Name,
			Phase: lantern.TracePhase(r.Ph),
			TS:    r.TS,
			Dur:   r.Dur,
			PID:   r.PID,
			TID:   r.TID,
		}
		if data, ok := r.Args["data"].(map[string]interface{}); ok {
			e.Data = traceEventDataFromArgs(data)
		}
		events = append(events, e)
	}
	return events, nil
}

func traceEventDataFromArgs(data map[string]interface{}) lantern.EventData {
	var out lantern.EventData
	if s, ok := data["url"].(string); ok {
		out.URL = s
	}
	if s, ok := data["timerId"].(string); ok {
		out.TimerID = s
	}
	if s, ok := data["styleSheetUrl"].(string); ok {
		out.StyleSheetURL = s
	}
	if s, ok := data["requestId"].(string); ok {
		out.RequestID = s
	}
	if rs, ok := data["readyState"].(float64); ok {
		out.ReadyState = int(rs)
	}
	if stack, ok := data["stackTrace"].([]interface{}); ok {
		for _, f := range stack {
			frame, ok := f.(map[string]interface{})
			if !ok {
				continue
			}
			if url, ok := frame["url"].(string); ok {
				out.StackTrace = append(out.StackTrace, lantern.StackFrame{URL: url})
			}
		}
	}
	return out
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&devtoolsLogPath, "devtools-log", "", "path to a devtools protocol log (JSON array of {method, params})")
	analyzeCmd.Flags().StringVar(&tracePath, "trace", "", "path to a Chrome trace (JSON, {traceEvents: [...]} or a bare array)")
	analyzeCmd.Flags().StringVar(&settingsPath, "settings", "", "path to a YAML settings file (defaults to the simulate-mode mobile profile)")
	analyzeCmd.Flags().Float64Var(&speedIndexMs, "observed-speed-index-ms", 0, "speedline-derived speed index, if already computed upstream")
	analyzeCmd.Flags().StringVar(&logLevel, "log", "info", "log level (debug, info, warn, error)")
	analyzeCmd.MarkFlagRequired("devtools-log")
	analyzeCmd.MarkFlagRequired("trace")

	rootCmd.AddCommand(analyzeCmd)
}
