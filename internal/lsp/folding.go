package lsp

import (
	"context"
	"encoding/json"
	"os"

	"crease/internal/folding"
	"crease/internal/markdown"
	"crease/internal/progress"
	"crease/internal/source"
)

func (s *Server) handleFoldingRange(msg *rpcMessage) error {
	var params foldingRangeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	uri := canonicalURI(params.TextDocument.URI)
	text, ok := s.documentText(uri)
	if !ok {
		return s.sendResponse(msg.ID, []foldingRange{})
	}
	ranges := s.buildFoldingRanges(uri, text)
	return s.sendResponse(msg.ID, ranges)
}

// documentText answers from the overlay first and falls back to disk so
// foldingRange works even before the client opens the document.
func (s *Server) documentText(uri string) (string, bool) {
	if uri == "" {
		return "", false
	}
	s.mu.Lock()
	text, ok := s.openDocs[uri]
	s.mu.Unlock()
	if ok {
		return text, true
	}
	path := uriToPath(uri)
	if path == "" {
		return "", false
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(content), true
}

func (s *Server) buildFoldingRanges(uri, text string) []foldingRange {
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual(uriToPath(uri), []byte(text))
	f := fileSet.Get(id)

	root := markdown.New(s.flavor).Build(f)

	ctx := s.baseCtx
	if ctx == nil {
		ctx = context.Background()
	}
	mon := progress.New(1, progress.WithContext(ctx))
	regions, _ := folding.Extract(root, f, folding.Options{
		Policy:  markdown.Policy(s.collapsed...),
		Monitor: mon,
	})
	mon.Done()

	ranges := make([]foldingRange, 0, len(regions))
	for _, region := range folding.Sorted(regions) {
		startLine, ok := f.LineOfOffset(region.Start)
		if !ok {
			continue
		}
		end := region.End
		if end > region.Start {
			end--
		}
		endLine, ok := f.LineOfOffset(end)
		if !ok || endLine <= startLine {
			continue
		}
		ranges = append(ranges, foldingRange{
			StartLine: int(startLine),
			EndLine:   int(endLine),
		})
	}
	return ranges
}
