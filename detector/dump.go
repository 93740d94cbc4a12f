package detector

import (
	"io"
	"strconv"
	"strings"

	qt "github.com/valyala/quicktemplate"
)

// WriteTree writes an indented dump of the subtree rooted at n, one node per
// line with its state and watcher count.
func (n *Node) WriteTree(w io.Writer) {
	qw := qt.AcquireWriter(w)
	defer qt.ReleaseWriter(qw)
	n.writeTree(qw.N(), 0)
}

func (n *Node) writeTree(qw *qt.QWriter, depth int) {
	for i := 0; i < depth; i++ {
		qw.S("  ")
	}
	qw.S("@")
	qw.S(strconv.FormatUint(n.id, 10))
	qw.S(" ")
	qw.S(n.state.String())
	qw.S(" watchers=")
	qw.D(len(n.watchers))
	if n.disposed {
		qw.S(" disposed")
	}
	qw.S("\n")
	for _, c := range n.children {
		c.writeTree(qw, depth+1)
	}
}

func (n *Node) TreeString() string {
	var sb strings.Builder
	n.WriteTree(&sb)
	return sb.String()
}
