// Copyright (C) 2025 The Edgefield Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this file,
// You can obtain one at https://mozilla.org/MPL/2.0/.

// Command uacli is a small OPC UA command line client: browse the address
// space, read and write values, and monitor nodes from a subscription.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/edgefield/opcua/lib/client"
	"github.com/edgefield/opcua/lib/ua"
)

type cli struct {
	Endpoint string        `short:"e" default:"opc.tcp://localhost:4840/" help:"Server endpoint URL."`
	Timeout  time.Duration `default:"30s" help:"Per-request timeout."`
	Username string        `help:"User name for UserName identity."`
	Password string        `help:"Password for UserName identity."`

	Browse  browseCmd  `cmd:"" help:"Browse the children of a node."`
	Read    readCmd    `cmd:"" help:"Read the value attribute of nodes."`
	Write   writeCmd   `cmd:"" help:"Write an integer value to a node."`
	Monitor monitorCmd `cmd:"" help:"Subscribe to value changes of nodes."`
}

type browseCmd struct {
	Node string `arg:"" default:"i=85" help:"Node to browse (ns=2;s=... notation)."`
}

type readCmd struct {
	Nodes []string `arg:"" help:"Nodes to read."`
}

type writeCmd struct {
	Node  string `arg:"" help:"Node to write."`
	Value int64  `arg:"" help:"Integer value to write."`
}

type monitorCmd struct {
	Nodes    []string      `arg:"" help:"Nodes to monitor."`
	Interval time.Duration `default:"500ms" help:"Requested publishing interval."`
	Duration time.Duration `default:"1m" help:"How long to monitor before exiting."`
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name("uacli"),
		kong.Description("Minimal OPC UA client."),
		kong.UsageOnError(),
	)
	if err := kctx.Run(&c); err != nil {
		fmt.Fprintln(os.Stderr, "uacli:", err)
		os.Exit(1)
	}
}

func (c *cli) dial(ctx context.Context) (*client.Client, error) {
	opts := []client.Option{client.WithRequestTimeout(c.Timeout)}
	if c.Username != "" {
		opts = append(opts, client.WithUserIdentity(client.UserNameIdentity{
			UserName: c.Username,
			Password: c.Password,
		}))
	}
	return client.Dial(ctx, c.Endpoint, opts...)
}

// parseNodeID understands "i=85", "ns=2;s=tank.level" and "ns=3;i=1000".
func parseNodeID(s string) (ua.NodeID, error) {
	var ns uint64
	rest := s
	if strings.HasPrefix(rest, "ns=") {
		idx := strings.Index(rest, ";")
		if idx < 0 {
			return ua.NodeID{}, fmt.Errorf("invalid node id %q", s)
		}
		var err error
		ns, err = strconv.ParseUint(rest[3:idx], 10, 16)
		if err != nil {
			return ua.NodeID{}, fmt.Errorf("invalid namespace in %q: %w", s, err)
		}
		rest = rest[idx+1:]
	}
	switch {
	case strings.HasPrefix(rest, "i="):
		id, err := strconv.ParseUint(rest[2:], 10, 32)
		if err != nil {
			return ua.NodeID{}, fmt.Errorf("invalid numeric id in %q: %w", s, err)
		}
		return ua.NewNumericNodeID(uint16(ns), uint32(id)), nil
	case strings.HasPrefix(rest, "s="):
		return ua.NewStringNodeID(uint16(ns), rest[2:]), nil
	default:
		return ua.NodeID{}, fmt.Errorf("invalid node id %q", s)
	}
}

func (b *browseCmd) Run(c *cli) error {
	ctx := context.Background()
	node, err := parseNodeID(b.Node)
	if err != nil {
		return err
	}
	cl, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer cl.Close(ctx)

	refs, err := cl.Children(ctx, node)
	if err != nil {
		return err
	}
	for _, r := range refs {
		fmt.Printf("%-40s %-24s %s\n", r.NodeID.NodeID, r.BrowseName.Name, r.DisplayName.Text)
	}
	return nil
}

func (r *readCmd) Run(c *cli) error {
	ctx := context.Background()
	ids := make([]ua.ReadValueID, 0, len(r.Nodes))
	for _, s := range r.Nodes {
		node, err := parseNodeID(s)
		if err != nil {
			return err
		}
		ids = append(ids, ua.ReadValueID{NodeID: node, AttributeID: ua.AttributeIDValue})
	}
	cl, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer cl.Close(ctx)

	values, err := cl.ReadBatched(ctx, ids, nil)
	if err != nil {
		return err
	}
	for i, v := range values {
		status := ua.StatusGood
		if v.HasStatus {
			status = v.Status
		}
		fmt.Printf("%-30s %v (%v)\n", r.Nodes[i], v.Value.Value, status)
	}
	return nil
}

func (w *writeCmd) Run(c *cli) error {
	ctx := context.Background()
	node, err := parseNodeID(w.Node)
	if err != nil {
		return err
	}
	cl, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer cl.Close(ctx)

	status, err := cl.WriteValue(ctx, node, ua.NewDataValue(w.Value))
	if err != nil {
		return err
	}
	fmt.Println(status)
	return nil
}

func (m *monitorCmd) Run(c *cli) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, m.Duration)
	defer cancel()

	cl, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer cl.Close(context.Background())

	sub, err := cl.CreateSubscription(ctx, client.SubscriptionParameters{
		PublishingInterval: m.Interval,
		PublishingEnabled:  true,
	})
	if err != nil {
		return err
	}

	reqs := make([]client.MonitoredItemRequest, 0, len(m.Nodes))
	for _, s := range m.Nodes {
		node, err := parseNodeID(s)
		if err != nil {
			return err
		}
		req := client.ValueRequest(node)
		name := s
		req.OnValue = func(_ *client.MonitoredItem, v *ua.DataValue) {
			fmt.Printf("%s %-30s %v\n", time.Now().Format(time.RFC3339), name, v.Value.Value)
		}
		reqs = append(reqs, req)
	}
	items, err := sub.Monitor(ctx, reqs...)
	if err != nil {
		return err
	}
	for i, it := range items {
		if !it.Created() {
			fmt.Fprintf(os.Stderr, "monitor %s: %v\n", m.Nodes[i], it.LastStatus())
		}
	}

	<-ctx.Done()
	return nil
}
