package main

import (
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rogpeppe/go-internal/testscript"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"ersatz": run,
	}))
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Cmds: map[string]func(ts *testscript.TestScript, neg bool, args []string){
			"fetch": fetch,
		},
	})
}

// fetch URLFILE METHOD PATH STATUS [SUBSTRING]
//
// Waits for URLFILE to be written by a background serve, sends one request
// and checks the status and, optionally, that the body contains SUBSTRING.
func fetch(ts *testscript.TestScript, neg bool, args []string) {
	if neg {
		ts.Fatalf("unsupported: ! fetch")
	}
	if len(args) < 4 || len(args) > 5 {
		ts.Fatalf("usage: fetch URLFILE METHOD PATH STATUS [SUBSTRING]")
	}
	want, err := strconv.Atoi(args[3])
	ts.Check(err)

	var base string
	deadline := time.Now().Add(5 * time.Second)
	for {
		data, err := os.ReadFile(ts.MkAbs(args[0]))
		if err == nil && len(data) > 0 {
			base = strings.TrimSpace(string(data))
			break
		}
		if time.Now().After(deadline) {
			ts.Fatalf("timed out waiting for %s", args[0])
		}
		time.Sleep(20 * time.Millisecond)
	}

	req, err := http.NewRequest(args[1], base+args[2], nil)
	ts.Check(err)
	resp, err := http.DefaultClient.Do(req)
	ts.Check(err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	ts.Check(err)

	if resp.StatusCode != want {
		ts.Fatalf("%s %s: status %d, want %d\n%s", args[1], args[2], resp.StatusCode, want, body)
	}
	if len(args) == 5 && !strings.Contains(string(body), args[4]) {
		ts.Fatalf("%s %s: body %q does not contain %q", args[1], args[2], body, args[4])
	}
}
