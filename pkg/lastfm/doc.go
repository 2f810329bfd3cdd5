// Package lastfm provides a client library for the read-only parts of
// the Last.fm API 2.0.
//
// # Overview
//
// The client speaks the JSON flavour of the API (format=json) over GET
// requests. No signing or session key is needed: every method here is
// public data keyed by an API key.
//
// # Quick Start
//
//	import "github.com/jfmyers9/scrobblesync/pkg/lastfm"
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey: "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Listening History
//
// user.getRecentTracks is paginated. From is an inclusive lower bound
// in Unix seconds, so callers resuming from a stored timestamp T should
// pass T+1:
//
//	page, err := client.User().GetRecentTracks(ctx, lastfm.RecentTracksParams{
//	    User: "rj",
//	    From: lastSeen + 1,
//	    Page: 1,
//	})
//
// The track currently playing, if any, is returned with NowPlaying set
// and no timestamp. It has not been scrobbled and should be skipped.
//
// # Tracklists
//
//	info, err := client.Album().GetInfo(ctx, "Radiohead", "OK Computer")
//	for _, t := range info.Tracks {
//	    fmt.Println(t.TrackNumber, t.Name)
//	}
//
// # Error Handling
//
// API errors are returned as *Error. Temporary errors (service offline,
// rate limited) are retried by the client with exponential backoff
// before being returned:
//
//	if lastfm.IsNotFound(err) {
//	    // unknown user or album
//	}
//
// # API Coverage
//
// Currently implemented:
//   - user.getRecentTracks
//   - album.getInfo
//
// # Last.fm API Documentation
//
// https://www.last.fm/api
package lastfm
