package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bretello/pdbpp/debugger"
	"github.com/bretello/pdbpp/debugger/daptracer"
	"github.com/bretello/pdbpp/highlight"
	"github.com/bretello/pdbpp/pdbpp"
)

const Version = "1.0.0"

func main() {
	SetupLogger()
	defer CloseLogger()

	showVersion := flag.Bool("version", false, "Show the version number")
	execFile := flag.String("file", "", "Program to debug")
	adapter := flag.String("adapter", "python3 -m debugpy.adapter", "Debug adapter command")
	language := flag.String("language", "python", "Program language, used for highlighting")
	style := flag.String("style", "monokai", "Highlighting style")
	workDir := flag.String("workdir", "", "Working directory of the debuggee")
	breaks := flag.String("break", "", "Comma separated breakpoints, file:line or line")
	sticky := flag.Bool("sticky", false, "Start in sticky mode")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Version: %s\n", Version)
		return
	}
	if *execFile == "" {
		fmt.Println("exec file cannot be empty")
		os.Exit(2)
	}
	workPath := *workDir
	if workPath == "" {
		workPath, _ = os.Getwd()
	}

	breakpoints, err := parseBreakpoints(*breaks, *execFile)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	events := make(chan interface{}, 64)
	tracer := daptracer.NewDAPTracer(strings.Fields(*adapter))

	ctx := context.Background()
	err = tracer.Start(ctx, &debugger.StartOption{
		ExecFile:    *execFile,
		Args:        flag.Args(),
		WorkPath:    workPath,
		BreakPoints: breakpoints,
		Callback: func(event interface{}) {
			events <- event
		},
	})
	if err != nil {
		logrus.Errorf("start debug fail, err = %s", err)
		fmt.Printf("cannot start debugger: %s\n", err)
		os.Exit(1)
	}

	config := pdbpp.DefaultConfig()
	config.StickyByDefault = *sticky

	registry := pdbpp.NewRegistry()
	reader := pdbpp.NewTermReader(os.Stdin, os.Stdout)
	highlighter := highlight.New(*language, *style)

	for event := range events {
		switch event := event.(type) {
		case *debugger.OutputEvent:
			fmt.Print(event.Output)
		case *debugger.ContinuedEvent:
		case *debugger.StoppedEvent:
			session := registry.Acquire(pdbpp.AcquireOptions{
				SessionOptions: pdbpp.SessionOptions{
					Tracer:      tracer,
					Reader:      reader,
					Highlighter: highlighter,
					Out:         os.Stdout,
					Config:      config,
					Kind:        "cli",
				},
			})
			if err := session.Interaction(ctx, event); err != nil {
				logrus.Errorf("interaction fail, err = %s", err)
				return
			}
		case *debugger.ExitedEvent:
			if event.Message != "" {
				fmt.Println(event.Message)
			}
			return
		}
	}
}

func parseBreakpoints(spec, defaultFile string) ([]*debugger.Breakpoint, error) {
	if spec == "" {
		return nil, nil
	}
	var breakpoints []*debugger.Breakpoint
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		file := defaultFile
		lineStr := part
		if i := strings.LastIndex(part, ":"); i >= 0 {
			file, lineStr = part[:i], part[i+1:]
		}
		line, err := strconv.Atoi(lineStr)
		if err != nil {
			return nil, fmt.Errorf("invalid breakpoint %q", part)
		}
		breakpoints = append(breakpoints, debugger.NewBreakpoint(file, line))
	}
	return breakpoints, nil
}
