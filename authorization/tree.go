package authorization

import (
	"context"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/smis/sso/errors"
	"github.com/smis/sso/metrics"
	"github.com/smis/sso/models"
)

// ResolveTree returns the employee's assignments as a forest. Records whose
// parent is outside the employee's set are roots. Children are ordered by id,
// so the result does not depend on the order storage returns records in.
func (r *Resolver) ResolveTree(ctx context.Context, employeeID int64) ([]*models.AssignmentNode, error) {
	defer metrics.ObserveResolve("tree", time.Now())
	return r.forest(ctx, employeeID)
}

func (r *Resolver) forest(ctx context.Context, employeeID int64) ([]*models.AssignmentNode, error) {
	recs, err := r.dir.AssignmentsForEmployee(ctx, employeeID)
	if err != nil {
		return nil, errors.Infrastructure("load assignments", err)
	}
	nodes, roots := buildForest(recs)
	if err := r.attachDetails(ctx, nodes); err != nil {
		return nil, err
	}
	return roots, nil
}

// recordLess orders by id, then parent (none first), entity type and entity id,
// so records sharing an id always resolve the same way.
func recordLess(a, b models.AssignmentRecord) bool {
	if a.ID != b.ID {
		return a.ID < b.ID
	}
	if (a.ParentID == nil) != (b.ParentID == nil) {
		return a.ParentID == nil
	}
	if a.ParentID != nil && *a.ParentID != *b.ParentID {
		return *a.ParentID < *b.ParentID
	}
	if a.EntityType != b.EntityType {
		return a.EntityType < b.EntityType
	}
	return a.EntityID < b.EntityID
}

// buildForest links records into nodes through an index arena. It returns
// every node in id order along with the roots. Of records sharing an id only
// the first by recordLess is kept. A parent chain that loops back on itself is
// cut above its smallest id, which then becomes a root.
func buildForest(recs []models.AssignmentRecord) ([]*models.AssignmentNode, []*models.AssignmentNode) {
	sorted := make([]models.AssignmentRecord, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool { return recordLess(sorted[i], sorted[j]) })

	index := make(map[int64]int, len(sorted))
	nodes := make([]*models.AssignmentNode, 0, len(sorted))
	for _, rec := range sorted {
		if _, dup := index[rec.ID]; dup {
			log.Printf("authorization: duplicate assignment id %d dropped", rec.ID)
			continue
		}
		index[rec.ID] = len(nodes)
		node := &models.AssignmentNode{
			ID:         rec.ID,
			EntityType: rec.EntityType,
			EntityID:   rec.EntityID,
			Children:   []*models.AssignmentNode{},
		}
		if rec.ParentID != nil {
			pid := *rec.ParentID
			node.ParentID = &pid
		}
		nodes = append(nodes, node)
	}

	parent := make([]int, len(nodes))
	children := make([][]int, len(nodes))
	for i, node := range nodes {
		parent[i] = -1
		if node.ParentID == nil {
			continue
		}
		if p, ok := index[*node.ParentID]; ok && p != i {
			parent[i] = p
			children[p] = append(children[p], i)
		}
	}

	reached := make([]bool, len(nodes))
	mark := func(root int) {
		stack := []int{root}
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if reached[i] {
				continue
			}
			reached[i] = true
			stack = append(stack, children[i]...)
		}
	}
	for i := range nodes {
		if parent[i] < 0 {
			mark(i)
		}
	}

	for i := range nodes {
		if reached[i] {
			continue
		}
		// an unreached node always has a parent; climbing must revisit a node
		onPath := make(map[int]bool)
		j := i
		for !onPath[j] {
			onPath[j] = true
			j = parent[j]
		}
		cut := j
		for k := parent[j]; k != j; k = parent[k] {
			if nodes[k].ID < nodes[cut].ID {
				cut = k
			}
		}
		log.Printf("authorization: assignment %d closes a parent cycle, treating it as a root", nodes[cut].ID)
		p := parent[cut]
		children[p] = removeIndex(children[p], cut)
		parent[cut] = -1
		mark(cut)
	}

	var roots []*models.AssignmentNode
	for i, node := range nodes {
		for _, c := range children[i] {
			node.Children = append(node.Children, nodes[c])
		}
		if parent[i] < 0 {
			roots = append(roots, node)
		}
	}
	if roots == nil {
		roots = []*models.AssignmentNode{}
	}
	return nodes, roots
}

func removeIndex(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// attachDetails loads the entity each node references, one batch per type.
// Nodes whose entity no longer exists keep nil details.
func (r *Resolver) attachDetails(ctx context.Context, nodes []*models.AssignmentNode) error {
	ids := make(map[models.EntityType][]int64)
	for _, node := range nodes {
		if node.EntityType != models.EntityUnknown {
			ids[node.EntityType] = append(ids[node.EntityType], node.EntityID)
		}
	}
	for t := range ids {
		ids[t] = uniqueIDs(ids[t])
	}

	var (
		branches    = map[int64]*models.Branch{}
		departments = map[int64]*models.Department{}
		degrees     = map[int64]*models.Degree{}
		roles       = map[int64]*models.Role{}
		permissions = map[int64]*models.Permission{}
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(ids[models.EntityBranch]) > 0 {
		g.Go(func() error {
			rows, err := r.dir.BranchesByIDs(gctx, ids[models.EntityBranch])
			for i := range rows {
				branches[rows[i].ID] = &rows[i]
			}
			return err
		})
	}
	if len(ids[models.EntityDepartment]) > 0 {
		g.Go(func() error {
			rows, err := r.dir.DepartmentsByIDs(gctx, ids[models.EntityDepartment])
			for i := range rows {
				departments[rows[i].ID] = &rows[i]
			}
			return err
		})
	}
	if len(ids[models.EntityDegree]) > 0 {
		g.Go(func() error {
			rows, err := r.dir.DegreesByIDs(gctx, ids[models.EntityDegree])
			for i := range rows {
				degrees[rows[i].ID] = &rows[i]
			}
			return err
		})
	}
	if len(ids[models.EntityRole]) > 0 {
		g.Go(func() error {
			rows, err := r.dir.RolesByIDs(gctx, ids[models.EntityRole])
			for i := range rows {
				roles[rows[i].ID] = &rows[i]
			}
			return err
		})
	}
	if len(ids[models.EntityPermission]) > 0 {
		g.Go(func() error {
			rows, err := r.dir.PermissionsByIDs(gctx, ids[models.EntityPermission])
			for i := range rows {
				permissions[rows[i].ID] = &rows[i]
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Infrastructure("load assignment details", err)
	}

	for _, node := range nodes {
		switch node.EntityType {
		case models.EntityBranch:
			if v, ok := branches[node.EntityID]; ok {
				node.Details = v
			}
		case models.EntityDepartment:
			if v, ok := departments[node.EntityID]; ok {
				node.Details = v
			}
		case models.EntityDegree:
			if v, ok := degrees[node.EntityID]; ok {
				node.Details = v
			}
		case models.EntityRole:
			if v, ok := roles[node.EntityID]; ok {
				node.Details = v
			}
		case models.EntityPermission:
			if v, ok := permissions[node.EntityID]; ok {
				node.Details = v
			}
		}
	}
	return nil
}
