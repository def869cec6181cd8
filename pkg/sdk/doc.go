// Package seeker embeds the seeker search gateway in a Go program.
//
// A Client retrieves passages from one backend (Qdrant, a remote RAG pipeline,
// Pinecone or a Redis vector index), writes an answer with a chat model and
// resolves deep links for every source.
//
//	client, err := seeker.New(ctx,
//	    seeker.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	    seeker.WithQdrant(os.Getenv("QDRANT_URL"), os.Getenv("QDRANT_API_KEY"), "amorc_rag"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.Search(ctx, "What is the meaning of the rose?", seeker.SearchOptions{TopK: 5})
//	for _, src := range resp.Sources {
//	    fmt.Println(src.Title, src.Link.URL)
//	}
//
// Subtitle conversion and link resolution need no backend:
//
//	vtt := seeker.SubtitlesToVTT(srt)
package seeker
