// Package maktaba embeds the maktaba faceted search pipeline in a Go program.
//
// The client compiles UI filter state into engine queries, runs them against
// a Typesense-compatible engine and composes the response with the facet
// lookups a search page needs. It is the in-process counterpart of the HTTP
// API served by `maktaba serve`.
//
//	client, _ := maktaba.New(ctx,
//	    maktaba.WithEngine("http://localhost:8108", apiKey),
//	    maktaba.WithMemoryCache(10_000, time.Minute),
//	)
//	defer client.Close()
//
//	res, _ := client.Search(ctx, maktaba.Books, maktaba.SearchParams{
//	    Query:   "Sahih al-Bukhari",
//	    Filters: maktaba.Filters{Authors: []string{"a1"}},
//	})
//	fmt.Println(res.Found, res.Pagination.TotalPages, res.Facets["authors"])
package maktaba
