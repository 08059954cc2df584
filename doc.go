// Package phantom provides a native Go client for the Splunk Phantom
// (SOAR) REST API, aimed at testing playbooks end to end.
//
// # Features
//
//   - Service-based architecture: Containers, Artifacts, Vault, Playbooks, Actions
//   - One HTTP request per operation, no hidden retries or caching
//   - Typed errors for precise error handling
//   - Functional options and YAML/environment configuration
//   - Opt-in polling of playbook and action runs with Go iterators
//
// # Quick Start
//
//	client, err := phantom.NewClient(
//	    phantom.WithBaseURL("https://phantom.example.com"),
//	    phantom.WithToken(token),
//	    phantom.WithInsecureSkipVerify(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	created, err := client.Containers.Create(ctx, &phantom.CreateContainerRequest{
//	    Name:  "TEST - phishing triage",
//	    Label: "events",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = client.Artifacts.Add(ctx, &phantom.AddArtifactRequest{
//	    ContainerID: created.ID,
//	    CEF:         map[string]any{"sourceAddress": "10.1.1.1"},
//	})
//
//	run, err := client.Playbooks.Run(ctx, &phantom.RunPlaybookRequest{
//	    ContainerID: created.ID,
//	    Playbook:    "local/triage",
//	})
//
// # Configuration
//
// Settings can be read from a YAML file with PHANTOM_URL and
// PHANTOM_AUTH_TOKEN taking precedence:
//
//	cfg, err := phantom.LoadConfig("phantom.yaml")
//	client, err := phantom.NewClient(phantom.WithConfig(cfg))
//
// # Error Handling
//
// The package uses typed errors that can be inspected with errors.As:
//
//	_, err := client.Containers.Delete(ctx, id)
//	if err != nil {
//	    var notFound *phantom.NotFoundError
//	    if errors.As(err, &notFound) {
//	        // Handle not found
//	    }
//	}
//
// # Polling
//
// Get methods return the current state and never block. Watch and Wait
// poll a run until it reaches a terminal status:
//
//	for snapshot, err := range client.Playbooks.Watch(ctx, run.RunID, nil) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(snapshot.Status)
//	}
//
//	final, err := client.Playbooks.Wait(ctx, run.RunID, &phantom.PollOptions{
//	    Interval:    2 * time.Second,
//	    MaxAttempts: 30,
//	})
package phantom
