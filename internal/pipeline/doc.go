/*
Package pipeline groups tasks and nested pipelines into a composable unit of
work.

A pipeline's steps are tasks or other pipelines. Compose resolves each task's
dependency references into concrete upstream tasks and records them as keyed
edges in the pipeline DAG; nested pipelines are composed against their parent
and unioned into it. Collect orders the DAG topologically and fills a work
queue; Run drains it with a single worker.

References resolve as follows:

  - task.After(p): the last step of p, which must be a task held in p's DAG.
  - task.Named(name): the first task with that name in this pipeline's DAG,
    then in the input pipeline given to Compose.
  - task.On(t): t itself, provided this pipeline's DAG or the input's holds it.

Task names are not unique. By-name lookups return the first match in node
insertion order.
*/
package pipeline
