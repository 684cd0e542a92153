package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/golang/glog"

	"github.com/wavebase/client-go/bsatn"
	"github.com/wavebase/client-go/protocol"
	"github.com/wavebase/client-go/rowcache"
	"github.com/wavebase/client-go/wavebase"
)

const ExampleVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `wavebase client example.

Usage:
    example watch --host=<host> --module=<module> --query=<query> [--token=<token>] [--secure]
    example call --host=<host> --module=<module> --reducer=<reducer> [--token=<token>] [--secure]

Options:
    -h --help               Show this screen.
    --version                Show version.
    --host=<host>            Server host, e.g. db.example.com.
    --module=<module>        Module/database name to connect to.
    --query=<query>          SQL query to subscribe to.
    --reducer=<reducer>      Reducer name to invoke with no arguments.
    --token=<token>          Bearer token for the handshake.
    --secure                 Use wss/https instead of ws/http.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], ExampleVersion)
	if err != nil {
		panic(err)
	}

	host, _ := opts.String("--host")
	module, _ := opts.String("--module")
	token, _ := opts.String("--token")
	secure, _ := opts.Bool("--secure")

	cache := rowcache.NewClientCache(nil)
	cfg := wavebase.NewConnectionConfig(host, module, wavebase.WithSecure(secure), wavebase.WithToken(token))
	session, err := wavebase.NewSession(cfg, cache)
	if err != nil {
		Err.Fatalf("configure session: %v", err)
	}

	session.OnIdentity(func(identity bsatn.Identity, connectionID bsatn.ConnectionId) {
		glog.Infof("handshake complete: identity=%v connection=%v", identity, connectionID)
	})
	session.OnDisconnect(func(err error) {
		if err != nil {
			Err.Printf("session disconnected: %v", err)
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := session.Connect(ctx); err != nil {
		Err.Fatalf("connect: %v", err)
	}
	defer session.Disconnect()

	if watch_, _ := opts.Bool("watch"); watch_ {
		query, _ := opts.String("--query")
		runWatch(session, query)
		return
	}
	if call_, _ := opts.Bool("call"); call_ {
		reducer, _ := opts.String("--reducer")
		runCall(session, reducer)
		return
	}
}

func runWatch(session *wavebase.Session, query string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handle, err := session.Subscribe(ctx, query)
	if err != nil {
		Err.Fatalf("subscribe: %v", err)
	}

	session.Cache().OnAny(func(ev rowcache.Event) {
		Out.Printf("%s %s: %v -> %v", ev.Table, ev.Kind, ev.Old, ev.New)
	})

	Out.Printf("subscribed (request_id=%d), press ctrl-c to stop", handle.RequestID)
	select {}
}

func runCall(session *wavebase.Session, reducer string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := session.CallReducer(ctx, reducer, nil, protocol.ReducerFlagFullUpdate)
	if err != nil {
		Err.Fatalf("call reducer %q: %v", reducer, err)
	}
	Out.Printf("reducer %q committed: energy=%d duration=%v", reducer, result.EnergyConsumed, result.HostExecutionDuration)
}
