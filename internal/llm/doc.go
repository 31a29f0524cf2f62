// Package llm is a thin completion client for OpenAI-compatible chat APIs
// such as Ollama, llama.cpp server or OpenAI itself.
//
// The endpoint is an explicit constructor value, so clients for different
// servers can coexist in one process:
//
//	c, err := llm.NewClient(llm.Config{
//		BaseURL:  "http://localhost:11434/v1",
//		Model:    "mistral",
//		JSONMode: true,
//	})
//	reply, err := c.Complete(ctx, prompt)
package llm
