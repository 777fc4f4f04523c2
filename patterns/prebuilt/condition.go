package prebuilt

import (
	"context"

	"github.com/leofalp/localgraph/patterns/graph"
	"github.com/leofalp/localgraph/providers/ai"
)

// ToolsNodeName is the node name ToolsCondition routes to.
const ToolsNodeName = "tools"

// ToolsCondition routes to ToolsNodeName when the latest message requests
// tools and to graph.End otherwise. Only the latest message is inspected.
func ToolsCondition(_ context.Context, state graph.MessagesState) (string, error) {
	if last, ok := state.Last(); ok && last.Kind() == ai.KindToolRequest {
		return ToolsNodeName, nil
	}
	return graph.End, nil
}
