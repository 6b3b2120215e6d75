// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// RAGService ties the pipeline together: ingestion runs the splitter, the
// embedder and the chunk store; queries run the RetrievalPipeline and then
// the AnswerComposer. SettingsService reads and validates configuration.
package services
