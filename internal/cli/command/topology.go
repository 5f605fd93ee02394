// Package command provides CLI command definitions for cachemesh-cli.
package command

import (
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/cachemesh-go/internal/cli/output"
	"github.com/yndnr/cachemesh-go/internal/server/httpserver/handler"
)

// TopologyCommand returns the topology subcommand group.
func TopologyCommand() *cli.Command {
	return &cli.Command{
		Name:    "topology",
		Aliases: []string{"topo"},
		Usage:   "Inspect cache topologies",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List caches known to the rebalance policy",
				Action: topologyList,
			},
			{
				Name:      "get",
				Usage:     "Show the topology of a cache",
				ArgsUsage: "CACHE",
				Action:    topologyGet,
			},
			{
				Name:      "confirm",
				Usage:     "Confirm a node's application of a pending hash",
				ArgsUsage: "CACHE",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "topology-id",
						Aliases:  []string{"t"},
						Usage:    "Topology id being confirmed",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "node",
						Aliases:  []string{"n"},
						Usage:    "Confirming node id",
						Required: true,
					},
				},
				Action: topologyConfirm,
			},
		},
	}
}

func topologyList(c *cli.Context) error {
	var resp struct {
		Caches []string `json:"caches"`
	}
	if err := clientFor(c).GetJSON(c.Context, "/v1/topologies", &resp); err != nil {
		return err
	}

	if output.Format(c.String("output")) == output.FormatJSON {
		return formatterFor(c).Format(c.App.Writer, resp)
	}

	table := output.Table{Headers: []string{"CACHE"}}
	for _, name := range resp.Caches {
		table.Rows = append(table.Rows, []string{name})
	}
	return formatterFor(c).Format(c.App.Writer, table)
}

func topologyGet(c *cli.Context) error {
	cache := c.Args().First()
	if cache == "" {
		return fmt.Errorf("usage: topology get CACHE")
	}

	var dto handler.TopologyDTO
	if err := clientFor(c).GetJSON(c.Context, "/v1/topologies/"+cache, &dto); err != nil {
		return err
	}

	if output.Format(c.String("output")) == output.FormatJSON {
		return formatterFor(c).Format(c.App.Writer, dto)
	}

	table := output.Table{
		Headers: []string{"CACHE", "TOPOLOGY", "REBALANCING", "CURRENT MEMBERS", "PENDING MEMBERS"},
		Rows: [][]string{{
			dto.Cache,
			strconv.Itoa(dto.TopologyID),
			strconv.FormatBool(dto.RebalanceInProgress),
			chMembers(dto.CurrentCH),
			chMembers(dto.PendingCH),
		}},
	}
	return formatterFor(c).Format(c.App.Writer, table)
}

func topologyConfirm(c *cli.Context) error {
	cache := c.Args().First()
	if cache == "" {
		return fmt.Errorf("usage: topology confirm CACHE --topology-id ID --node NODE")
	}

	req := handler.ConfirmRequest{
		TopologyID: c.Int("topology-id"),
		Node:       c.String("node"),
	}
	var resp map[string]string
	if err := clientFor(c).PostJSON(c.Context, "/v1/topologies/"+cache+"/confirm", req, &resp); err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, resp["status"])
	return nil
}

func chMembers(ch *handler.ConsistentHashDTO) string {
	if ch == nil {
		return "-"
	}
	out := ""
	for i, m := range ch.Members {
		if i > 0 {
			out += ","
		}
		out += m
	}
	if out == "" {
		return "-"
	}
	return out
}
