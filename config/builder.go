package config

import (
	"github.com/google/uuid"

	"github.com/nodepoll/nodepoll"
)

// BuildNodes converts parsed configuration into SDK [nodepoll.Node] values.
//
// Nodes declared without an id get a generated UUID, so the same host may
// legitimately appear multiple times under different identities.
func BuildNodes(cfg *Config) ([]nodepoll.Node, error) {
	var nodes []nodepoll.Node

	for _, nc := range cfg.Nodes {
		id := nc.ID
		if id == "" {
			id = uuid.NewString()
		}

		n, err := nodepoll.NewNode(id, nc.Host, nc.Port)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, nil
}
