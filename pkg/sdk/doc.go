// Package memberscout provides a Go client for the memberscout discovery
// API: natural-language member search over a community directory.
//
//	client := memberscout.New("http://localhost:8080",
//	    memberscout.WithAPIKey("secret"),
//	)
//
//	resp, err := client.Query(ctx, memberscout.QueryRequest{
//	    TenantID:  "community-1",
//	    SessionID: "chat-42",
//	    Text:      "mechanical engineers from the 1998 batch in Chennai",
//	})
//	if err != nil {
//	    var apiErr *memberscout.APIError
//	    if errors.As(err, &apiErr) && apiErr.Code == memberscout.CodeValidationFailed {
//	        // fix the request
//	    }
//	}
//	for _, r := range resp.Results {
//	    fmt.Println(r.Member.Name, r.CombinedScore)
//	}
//
// Queries within one SessionID share conversation context: a follow-up like
// "who of them is in Pune?" inherits filters from the previous turn.
package memberscout
