// Package clientcli provides a client library for interacting with depot
// warehouse servers.
//
// It supports uploading files into a warehouse, downloading them back,
// looking a file up by name and listing the status of every warehouse.
// Profile-based configuration manages connections to several servers.
//
// # Basic Usage
//
// Create a client and upload a file:
//
//	client, err := clientcli.New(&clientcli.Config{Endpoint: "http://localhost:1337"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := client.Upload(ctx, clientcli.UploadOptions{
//		Warehouse: "audio",
//		LocalPath: "./track.mp3",
//	})
//	if errors.Is(err, clientcli.ErrConflict) {
//		// a file with that name is already stored
//	}
//
// The content type is sniffed from the file when UploadOptions.ContentType
// is empty.
//
// # Profile Configuration
//
// Use profiles to manage multiple server configurations:
//
//	configFile, err := clientcli.LoadConfigFile(clientcli.DefaultConfigPath())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	profile, err := configFile.GetProfile("production")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := clientcli.New(clientcli.ConfigFromProfile(profile))
//
// # Output Formatting
//
// Use formatters for human-readable or JSON output:
//
//	formatter := clientcli.NewFormatter(jsonOutput, quiet)
//	formatter.FormatUpload(os.Stdout, results)
package clientcli
