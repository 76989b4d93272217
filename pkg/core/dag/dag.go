// Package dag 提供依赖图构建、循环检测与层级划分
// 图存储基于 go-dag 库；循环检测与分层为本包实现
package dag

import (
	"fmt"
	"sort"

	godag "github.com/begmaroman/go-dag"
)

// vertex go-dag节点（内部结构，实现 Identifiable 接口）
// go-dag默认按JSON序列化计算节点哈希，字段必须导出才能参与哈希
type vertex struct {
	VertexID string `json:"vertex_id"`
}

// ID 实现 go-dag 的 Identifiable 接口
func (v *vertex) ID() string {
	return v.VertexID
}

// CycleError 循环依赖错误（对外导出）
type CycleError struct {
	Path []string // 循环路径，首尾为同一节点
}

// Error 实现error接口
func (e *CycleError) Error() string {
	return fmt.Sprintf("cyclic dependency detected: %v", e.Path)
}

// Graph 依赖图（对外导出）
// 节点以名称为键；边方向为 前置节点 -> 后置节点
type Graph struct {
	d     *godag.DAG[*vertex]
	order []string            // 节点名称（字典序，保证遍历确定性）
	adj   map[string][]string // 邻接表：节点 -> 子节点列表
}

// Build 从节点列表与依赖映射构建依赖图（对外导出）
// ids: 全部节点名称
// deps: 后置节点 -> 前置节点列表（依赖关系）
// 先在临时邻接表上做一次循环检测，再填充go-dag
func Build(ids []string, deps map[string][]string) (*Graph, error) {
	order := make([]string, len(ids))
	copy(order, ids)
	sort.Strings(order)

	// 1. 构建临时邻接表：前置 -> 后置
	adj := make(map[string][]string, len(order))
	for _, id := range order {
		adj[id] = make([]string, 0)
	}
	for id, depIDs := range deps {
		if _, exists := adj[id]; !exists {
			return nil, fmt.Errorf("unknown node %q in dependency map", id)
		}
		for _, depID := range depIDs {
			if _, exists := adj[depID]; !exists {
				return nil, fmt.Errorf("unknown node %q in dependency map", depID)
			}
			adj[depID] = append(adj[depID], id)
		}
	}
	for id := range adj {
		sort.Strings(adj[id])
	}

	// 2. 一次性检测循环
	if path := detectCycle(order, adj); path != nil {
		return nil, &CycleError{Path: path}
	}

	// 3. 填充go-dag（已确认无环，AddEdge不会失败）
	d := godag.NewDAG[*vertex]()
	for _, id := range order {
		if _, err := d.AddVertex(&vertex{VertexID: id}); err != nil {
			return nil, fmt.Errorf("add vertex %q failed: %w", id, err)
		}
	}
	for from, children := range adj {
		for _, to := range children {
			if err := d.AddEdge(from, to); err != nil {
				return nil, fmt.Errorf("add edge %s -> %s failed: %w", from, to, err)
			}
		}
	}

	return &Graph{d: d, order: order, adj: adj}, nil
}

// detectCycle 三色标记循环检测（显式栈迭代实现，避免深图递归爆栈）
// 返回循环路径；无环返回nil
func detectCycle(order []string, adj map[string][]string) []string {
	const (
		white = 0 // 未访问
		gray  = 1 // 正在访问（在当前DFS栈中）
		black = 2 // 已访问完成
	)

	color := make(map[string]int, len(order))

	type frame struct {
		id   string
		next int // 下一个待访问的子节点下标
	}

	for _, start := range order {
		if color[start] != white {
			continue
		}

		stack := []frame{{id: start}}
		color[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := adj[top.id]

			if top.next >= len(children) {
				// 子节点访问完毕，出栈并标记黑色
				color[top.id] = black
				stack = stack[:len(stack)-1]
				continue
			}

			child := children[top.next]
			top.next++

			switch color[child] {
			case white:
				color[child] = gray
				stack = append(stack, frame{id: child})
			case gray:
				// 灰色子节点：后向边，栈中从child到栈顶即为循环
				idx := 0
				for i := range stack {
					if stack[i].id == child {
						idx = i
						break
					}
				}
				path := make([]string, 0, len(stack)-idx+1)
				for _, fr := range stack[idx:] {
					path = append(path, fr.id)
				}
				path = append(path, child)
				return path
			}
		}
	}

	return nil
}

// Levels 层级划分（对外导出）
// Kahn算法：第0层为无依赖节点，节点层级 = 1 + max(前置节点层级)
// 同层节点之间无路径，可并行执行；层内按字典序排列
func (g *Graph) Levels() [][]string {
	inDegree := make(map[string]int, len(g.order))
	for _, id := range g.order {
		inDegree[id] = len(g.Parents(id))
	}

	queue := make([]string, 0)
	for _, id := range g.order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	levels := make([][]string, 0)
	for len(queue) > 0 {
		currentLevel := make([]string, 0, len(queue))
		nextQueue := make([]string, 0)

		for _, id := range queue {
			currentLevel = append(currentLevel, id)
			for _, childID := range g.Children(id) {
				inDegree[childID]--
				if inDegree[childID] == 0 {
					nextQueue = append(nextQueue, childID)
				}
			}
		}

		sort.Strings(currentLevel)
		levels = append(levels, currentLevel)
		queue = nextQueue
	}

	return levels
}

// Children 获取节点的子节点（后置节点）
func (g *Graph) Children(id string) []string {
	children, err := g.d.GetChildren(id)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(children))
	for childID := range children {
		out = append(out, childID)
	}
	sort.Strings(out)
	return out
}

// Parents 获取节点的父节点（前置节点）
func (g *Graph) Parents(id string) []string {
	parents, err := g.d.GetParents(id)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(parents))
	for parentID := range parents {
		out = append(out, parentID)
	}
	sort.Strings(out)
	return out
}

// Roots 获取所有根节点（无依赖节点）
func (g *Graph) Roots() []string {
	roots := g.d.GetRoots()
	out := make([]string, 0, len(roots))
	for id := range roots {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Size 节点数量
func (g *Graph) Size() int {
	return len(g.order)
}
