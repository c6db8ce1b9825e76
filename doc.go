// Package pesplan plans periodic timetables for public transport networks.
//
// Given a line concept with fixed frequencies, pesplan builds a periodic
// event-activity network (EAN), routes the OD demand through it and solves
// the periodic event scheduling problem for a passenger-weighted optimal
// timetable.
//
// The packages follow the planning pipeline:
//
//	network/      stations, links, lines and line pools (PTN)
//	od/           origin-destination demand
//	ean/          the event-activity network and its construction protocol
//	eanbuild/     EAN generation from a line concept and headway policies
//	bfs/          breadth-first spanning forests
//	dijkstra/     single-source shortest paths
//	prim_kruskal/ minimum spanning forests
//	cyclebase/    relevant activities and cycle bases of the EAN
//	passenger/    passenger distribution over shortest paths
//	solver/       integer programming models and solver registry
//	solver/bnb/   branch and bound over gonum's simplex
//	timetabling/  PESP and cycle periodicity formulations
//	config/       YAML configuration
//	dataset/      LinTim text files
//	cmd/pesplan/  command line interface
//
// Quick start:
//
//	pool := network.NewLinePool(ptn)
//	_ = pool.AddFromLinks(1, false, 0, []int{1, 2})
//	_ = pool.ApplyConcept(map[int]int{1: 1})
//	net, _ := eanbuild.Build(pool, 60)
//	engine, _ := passenger.NewEngine(net)
//	_, _ = engine.Distribute(ctx, demand)
//	res, _ := timetabling.Solve(ctx, net, timetabling.WithModel(timetabling.CPF))
package pesplan
