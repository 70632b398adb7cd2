package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- KNOWLEDGE BASE TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS knowledge_base SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON knowledge_base TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON knowledge_base TYPE string DEFAULT "";
    DEFINE FIELD IF NOT EXISTS created ON knowledge_base TYPE datetime DEFAULT time::now();

    -- ==========================================================================
    -- KNOWLEDGE FILE TABLE
    -- ==========================================================================
    -- One record per uploaded file. The record is created in "pending" state
    -- before extraction starts so that pollers never see "not found" for an
    -- accepted upload. Status is mutated only by the ingest orchestrator.
    DEFINE TABLE IF NOT EXISTS knowledge_file SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON knowledge_file TYPE string;
    DEFINE FIELD IF NOT EXISTS knowledge_base ON knowledge_file TYPE record<knowledge_base>;
    DEFINE FIELD IF NOT EXISTS status ON knowledge_file TYPE string
        ASSERT $value IN ["pending", "processing", "completed", "failed"];
    DEFINE FIELD IF NOT EXISTS extracted_text ON knowledge_file TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON knowledge_file TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON knowledge_file TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS file_base ON knowledge_file FIELDS knowledge_base;
    DEFINE INDEX IF NOT EXISTS file_base_status ON knowledge_file FIELDS knowledge_base, status;
`
