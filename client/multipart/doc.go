// Package multipart builds multipart/form-data request bodies.
//
//	form := multipart.New()
//	form.Add("name", "Alice")
//	form.AddFile("avatar", "a.png", png, "image/png")
//
//	res, err := client.NewResource[Profile]("profiles",
//		client.WithMethod(client.MethodPost),
//		client.WithMultipart(form),
//	)
//
// Each [Data] carries its own random boundary, so forms built
// concurrently never share one. Field names, filenames and values are
// written as raw UTF-8 and are not escaped.
package multipart
