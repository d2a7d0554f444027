// Package museum is a client for a museum collection API.
//
// It covers the three calls the scraper needs:
//
//	client := museum.NewClient("https://collection.example.org", 60*time.Second, log)
//	ids, err := client.SearchObjects(ctx, museum.NewFundQuery([]string{"14"}, "90", 100, 0))
//	entity, err := client.FetchObject(ctx, ids[0])
//	body, err := client.DownloadImage(ctx, *entity.Image)
//
// Every non-200 response is returned as a *errors.Error whose Type reflects
// the status; transport failures are ErrorTypeNetwork and undecodable bodies
// are ErrorTypeParsing.
package museum
