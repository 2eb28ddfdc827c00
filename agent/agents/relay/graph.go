package relay

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/Chative-Commerce-Relay/agent/nodes"
)

func (r *Relay) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, r.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("extract_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExtractIntent(ctx, in, r.extractor)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node extract_intent: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeDispatchAction,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchAction(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node dispatch_action: %w", err)
	}

	if err := graph.AddLambdaNode("summarize_result",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SummarizeResult(ctx, in, r.summarizer)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node summarize_result: %w", err)
	}

	if err := graph.AddLambdaNode(nodex.NodeFinalizeReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in, r.maxHistory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "extract_intent"},
		{nodex.NodeDispatchAction, "summarize_result"},
		{"summarize_result", nodex.NodeFinalizeReply},
		{nodex.NodeFinalizeReply, compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	branch := compose.NewGraphBranch(nodex.RouteAfterIntent, map[string]bool{
		nodex.NodeDispatchAction: true,
		nodex.NodeFinalizeReply:  true,
	})
	if err := graph.AddBranch("extract_intent", branch); err != nil {
		return nil, fmt.Errorf("add branch extract_intent: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("relay.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile relay graph: %w", err)
	}
	return runner, nil
}
