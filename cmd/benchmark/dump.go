package main

import (
	"context"
	"fmt"
	"os"

	"github.com/delaneyj/watchparty/detector"
	"github.com/delaneyj/watchparty/views"
	"github.com/urfave/cli/v3"
)

// dump builds a sample view (a fan-out of static nodes, a keyed list and a
// conditional region), runs one check and prints the resulting tree.
func dump(ctx context.Context, cmd *cli.Command) error {
	width, depth := int(cmd.Uint(widthKey)), int(cmd.Uint(depthKey))
	items := int(cmd.Uint(itemsKey))

	root := detector.New(quietLogger())
	fanOut(root, width, depth)

	keys := make([]int, items)
	for i := range keys {
		keys[i] = i
	}
	list := views.NewList(root.Fork(), func(n *detector.Node, key int) {
		n.Watch(detector.Watch(func() int { return key }, nil))
	})
	list.Bind(func() []int { return keys })

	show := items%2 == 0
	branch := views.NewBranch(root.Fork(),
		func(n *detector.Node) {
			n.Watch(detector.Watch(func() string { return "even" }, nil))
		},
		func(n *detector.Node) {
			n.Watch(detector.Watch(func() string { return "odd" }, nil))
			n.Watch(detector.Watch(func() int { return items }, nil))
		},
	)
	branch.Bind(func() bool { return show })

	if err := root.DetectChanges().Wait(ctx); err != nil {
		return err
	}
	if err := root.Verify(); err != nil {
		return fmt.Errorf("sample tree is inconsistent: %w", err)
	}
	root.WriteTree(os.Stdout)
	return nil
}

func fanOut(n *detector.Node, width, depth int) {
	if depth == 0 {
		return
	}
	for i := 0; i < width; i++ {
		fanOut(n.Fork(), width, depth-1)
	}
}
