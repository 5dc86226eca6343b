package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- FOOD TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS food SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS name ON food TYPE string;
    DEFINE FIELD IF NOT EXISTS brand ON food TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS serving_description ON food TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS category ON food TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS source ON food TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS calories ON food TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS protein ON food TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS carbs ON food TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS fat ON food TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS fiber ON food TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS sugar ON food TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS sodium ON food TYPE option<float>;
    DEFINE FIELD IF NOT EXISTS quality_score ON food TYPE option<int>
        ASSERT $value == NONE OR ($value >= 0 AND $value <= 100);
    DEFINE FIELD IF NOT EXISTS enrichment_status ON food TYPE option<string>
        ASSERT $value == NONE OR $value INSIDE ['pending', 'verified', 'failed'];
    DEFINE FIELD IF NOT EXISTS times_logged ON food TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS last_logged_at ON food TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS food_quality ON food FIELDS quality_score;
    DEFINE INDEX IF NOT EXISTS food_category ON food FIELDS category;

    -- ==========================================================================
    -- ENRICHMENT QUEUE TABLE
    -- ==========================================================================
    -- One item per food: record IDs are keyed by the food ID, and the unique
    -- index on food_id backs up that invariant. Terminal items are retained
    -- for audit and re-armed in place on re-enqueue.
    DEFINE TABLE IF NOT EXISTS enrichment_queue SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS food_id ON enrichment_queue TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON enrichment_queue TYPE string
        ASSERT $value INSIDE ['pending', 'processing', 'done', 'failed'];
    DEFINE FIELD IF NOT EXISTS attempts ON enrichment_queue TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS last_error ON enrichment_queue TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS enqueued_at ON enrichment_queue TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS claimed_at ON enrichment_queue TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS completed_at ON enrichment_queue TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS next_eligible_at ON enrichment_queue TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS queue_food ON enrichment_queue FIELDS food_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS queue_status ON enrichment_queue FIELDS status;
    DEFINE INDEX IF NOT EXISTS queue_eligible ON enrichment_queue FIELDS status, next_eligible_at;

    -- ==========================================================================
    -- PIPELINE STATUS TABLE (singleton snapshot)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS pipeline_status SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS total_foods ON pipeline_status TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS total_verified ON pipeline_status TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS total_pending ON pipeline_status TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS foods_below_threshold ON pipeline_status TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS average_quality_score ON pipeline_status TYPE float DEFAULT 0.0;
    DEFINE FIELD IF NOT EXISTS queue_size ON pipeline_status TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS last_updated ON pipeline_status TYPE datetime DEFAULT time::now();
`
