// Package sdk is a client for the graph server in package server.
//
// It starts runs and consumes their Server-Sent Event streams one event at
// a time:
//
//	client := sdk.NewClient(sdk.DefaultURL)
//	stream, err := client.Runs.Stream(ctx, nil, "agent", input)
//	if err != nil {
//	    return err
//	}
//	for part, err := range stream.Iter() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(part.Event, string(part.Data))
//	}
//
// Nothing is retried or resumed: a dropped connection ends the stream with
// an error.
package sdk
