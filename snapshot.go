package osm2ttm

import (
	"context"
	"sort"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// NetworkSnapshot cuts an OSM (history) file to a point in time and to an extent.
//
// With a time set, input is treated as a history file: for every element the latest version
// not newer than that time is taken, deleted (invisible) elements are dropped.
// With an extent set, nodes inside of it are kept together with complete ways referencing any
// of them (all nodes of such ways are kept as well) and relations having a kept member.
type NetworkSnapshot struct {
	at           *time.Time
	extent       *orb.Bound
	scannerProcs int
}

func NewNetworkSnapshot(options ...func(*NetworkSnapshot)) *NetworkSnapshot {
	snapshot := &NetworkSnapshot{
		scannerProcs: DEFAULT_SCANNER_PROCS,
	}
	for _, option := range options {
		option(snapshot)
	}
	return snapshot
}

func WithSnapshotTime(at time.Time) func(*NetworkSnapshot) {
	return func(snapshot *NetworkSnapshot) {
		snapshot.at = &at
	}
}

func WithSnapshotExtent(extent orb.Bound) func(*NetworkSnapshot) {
	return func(snapshot *NetworkSnapshot) {
		snapshot.extent = &extent
	}
}

func WithSnapshotScannerProcs(procs int) func(*NetworkSnapshot) {
	return func(snapshot *NetworkSnapshot) {
		snapshot.scannerProcs = procs
	}
}

// accepts reports whether version of an element belongs to snapshot
func (snapshot *NetworkSnapshot) accepts(timestamp time.Time) bool {
	return snapshot.at == nil || !timestamp.After(*snapshot.at)
}

// Extract writes snapshot of input network into output (OSM XML)
func (snapshot *NetworkSnapshot) Extract(ctx context.Context, input, output string) error {
	st := time.Now()
	nodes := make(map[osm.NodeID]*osm.Node)
	ways := make(map[osm.WayID]*osm.Way)
	relations := make(map[osm.RelationID]*osm.Relation)
	// Plain OSM XML carries no `visible` attribute and decodes as invisible.
	// Deletion state is trusted only once some element is explicitly visible.
	hasVisibility := false

	err := scanNetwork(ctx, input, snapshot.scannerProcs, func(obj osm.Object) error {
		switch element := obj.(type) {
		case *osm.Node:
			if !snapshot.accepts(element.Timestamp) {
				return nil
			}
			hasVisibility = hasVisibility || element.Visible
			if prev, ok := nodes[element.ID]; !ok || prev.Version <= element.Version {
				nodes[element.ID] = element
			}
		case *osm.Way:
			if !snapshot.accepts(element.Timestamp) {
				return nil
			}
			hasVisibility = hasVisibility || element.Visible
			if prev, ok := ways[element.ID]; !ok || prev.Version <= element.Version {
				ways[element.ID] = element
			}
		case *osm.Relation:
			if !snapshot.accepts(element.Timestamp) {
				return nil
			}
			hasVisibility = hasVisibility || element.Visible
			if prev, ok := relations[element.ID]; !ok || prev.Version <= element.Version {
				relations[element.ID] = element
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "Can't read network for snapshot")
	}

	// Versions were chosen, now drop deleted elements
	if snapshot.at != nil && hasVisibility {
		for id, node := range nodes {
			if !node.Visible {
				delete(nodes, id)
			}
		}
		for id, way := range ways {
			if !way.Visible {
				delete(ways, id)
			}
		}
		for id, relation := range relations {
			if !relation.Visible {
				delete(relations, id)
			}
		}
	}

	if snapshot.extent != nil {
		snapshot.cutToExtent(nodes, ways, relations)
	}

	if len(ways) == 0 {
		return errors.Errorf("Network snapshot of '%s' has no ways", input)
	}

	err = writeNetworkAtomically(output, func(writer NetworkWriter) error {
		for _, id := range sortedKeys(nodes) {
			if err := writer.Write(nodes[id]); err != nil {
				return err
			}
		}
		for _, id := range sortedKeys(ways) {
			if err := writer.Write(ways[id]); err != nil {
				return err
			}
		}
		for _, id := range sortedKeys(relations) {
			if err := writer.Write(relations[id]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "Can't write network snapshot")
	}
	log.Infof("Network snapshot '%s': %d nodes, %d ways, %d relations. Done in %v", output, len(nodes), len(ways), len(relations), time.Since(st))
	return nil
}

func (snapshot *NetworkSnapshot) cutToExtent(nodes map[osm.NodeID]*osm.Node, ways map[osm.WayID]*osm.Way, relations map[osm.RelationID]*osm.Relation) {
	inside := make(map[osm.NodeID]struct{})
	for id, node := range nodes {
		if snapshot.extent.Contains(node.Point()) {
			inside[id] = struct{}{}
		}
	}
	neededNodes := make(map[osm.NodeID]struct{}, len(inside))
	for id := range inside {
		neededNodes[id] = struct{}{}
	}
	for id, way := range ways {
		keep := false
		for _, wayNode := range way.Nodes {
			if _, ok := inside[wayNode.ID]; ok {
				keep = true
				break
			}
		}
		if !keep {
			delete(ways, id)
			continue
		}
		for _, wayNode := range way.Nodes {
			neededNodes[wayNode.ID] = struct{}{}
		}
	}
	for id := range nodes {
		if _, ok := neededNodes[id]; !ok {
			delete(nodes, id)
		}
	}
	for id, relation := range relations {
		keep := false
		for _, member := range relation.Members {
			switch member.Type {
			case osm.TypeNode:
				_, keep = nodes[osm.NodeID(member.Ref)]
			case osm.TypeWay:
				_, keep = ways[osm.WayID(member.Ref)]
			}
			if keep {
				break
			}
		}
		if !keep {
			delete(relations, id)
		}
	}
}

func sortedKeys[K ~int64, V any](elements map[K]V) []K {
	keys := lo.Keys(elements)
	sort.Slice(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	})
	return keys
}
